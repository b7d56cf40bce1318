package finder

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Option configures an Engine.
type Option func(*Engine)

// QueryOption configures a single query.
type QueryOption func(*config)

// Event is the UI event that triggered a query. It decides :hover, :active
// and (for keyboard events) :focus-visible.
type Event struct {
	Type   string
	Target *html.Node
	Key    string
}

type config struct {
	event    *Event
	noexcept bool
	warn     bool
}

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log.Named("finder")
		}
	}
}

// WithoutFastPath disables matching simple selectors with cascadia.
func WithoutFastPath() Option {
	return func(e *Engine) { e.fastPath = false }
}

func WithEvent(event *Event) QueryOption {
	return func(c *config) { c.event = event }
}

// Noexcept turns SyntaxError and NotSupportedError into empty results.
// TypeError is always returned.
func Noexcept() QueryOption {
	return func(c *config) { c.noexcept = true }
}

// Warn logs unsupported pseudo-classes and pseudo-elements instead of failing;
// they never match.
func Warn() QueryOption {
	return func(c *config) { c.warn = true }
}

func newConfig(opts []QueryOption) config {
	c := config{}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c config) isMouse(types ...string) bool {
	if c.event == nil || c.event.Target == nil {
		return false
	}
	for _, t := range types {
		if c.event.Type == t {
			return true
		}
	}
	return false
}

func (c config) isKeyboard() bool {
	if c.event == nil {
		return false
	}
	switch c.event.Type {
	case "keydown", "keyup", "keypress":
		return true
	}
	return false
}
