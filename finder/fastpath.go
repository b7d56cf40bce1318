package finder

import (
	"regexp"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
)

var (
	// type, universal, class and id selectors with the four combinators
	fastPathRegexp = regexp.MustCompile(`^[a-z0-9_\-\s.#*>+~,]+$`)
	// names cascadia and the css grammar disagree on
	fastPathRejectRegexp = regexp.MustCompile(`[#.]-?(\d|-?[\s.#*>+~,]|$)`)
)

// fast returns the cascadia matcher for selectors simple enough to not need
// the engine, or nil.
func (e *Engine) fast(selector string) cascadia.Matcher {
	if !e.fastPath || e.rejected[selector] {
		return nil
	} else if m, ok := e.compiled[selector]; ok {
		return m
	}
	if !fastPathRegexp.MatchString(selector) || fastPathRejectRegexp.MatchString(selector) {
		e.rejected[selector] = true
		return nil
	}
	m, err := cascadia.ParseGroup(selector)
	if err != nil {
		e.log.Debug("fast path rejected selector", zap.String("selector", selector), zap.Error(err))
		e.rejected[selector] = true
		return nil
	}
	e.log.Debug("fast path compiled selector", zap.String("selector", selector))
	e.compiled[selector] = m
	return m
}
