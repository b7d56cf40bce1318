package dom

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var inputTypes = set("hidden", "text", "search", "tel", "url", "email", "password", "date", "month", "week",
	"time", "datetime-local", "number", "range", "color", "checkbox", "radio", "file", "submit", "image", "reset", "button")

var (
	formAssociated    = set("button", "fieldset", "input", "object", "output", "select", "textarea", "option", "optgroup")
	disableable       = set("button", "input", "select", "textarea", "fieldset", "optgroup", "option")
	textTypes         = set("text", "search", "tel", "url", "email", "password")
	placeholderTypes  = set("text", "search", "tel", "url", "email", "password", "number")
	readWriteTypes    = set("text", "search", "tel", "url", "email", "password", "date", "month", "week", "time", "datetime-local", "number")
	requiredExempt    = set("hidden", "range", "color", "submit", "image", "reset", "button")
	rangeTypes        = set("number", "range", "date", "month", "week", "time", "datetime-local")
	validationExempt  = set("hidden", "reset", "button")
	emailRegexp       = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?)*$`)
	newlineReplacer   = strings.NewReplacer("\r", "", "\n", "")
	whitespaceTrimmer = " \t\n\f\r"
)

func set(vs ...string) map[string]bool {
	m := map[string]bool{}
	for _, v := range vs {
		m[v] = true
	}
	return m
}

func isHTML(n *html.Node, names ...string) bool {
	if !IsElement(n) || n.Namespace != "" {
		return false
	}
	for _, name := range names {
		if n.Data == name {
			return true
		}
	}
	return len(names) == 0
}

// InputType returns the normalized type of an input element; missing and
// unknown types are text.
func InputType(n *html.Node) string {
	if t := strings.ToLower(strings.Trim(AttrValue(n, "type"), whitespaceTrimmer)); inputTypes[t] {
		return t
	}
	return "text"
}

// IsFormAssociated reports whether n is a form control whose state lives
// partly outside its attributes (value, checkedness, selectedness).
func IsFormAssociated(n *html.Node) bool {
	return isHTML(n) && formAssociated[n.Data]
}

func IsDisabled(n *html.Node) bool {
	if !isHTML(n) || !disableable[n.Data] {
		return false
	} else if HasAttr(n, "disabled") {
		return true
	}
	switch n.Data {
	case "option":
		return isHTML(n.Parent, "optgroup") && HasAttr(n.Parent, "disabled")
	case "optgroup":
		return false
	}
	for c, p := n, n.Parent; IsElement(p); c, p = p, p.Parent {
		if isHTML(p, "fieldset") && HasAttr(p, "disabled") && c != firstChild(p, "legend") {
			return true
		}
	}
	return false
}

func IsEnabled(n *html.Node) bool {
	return isHTML(n) && disableable[n.Data] && !IsDisabled(n)
}

func IsChecked(n *html.Node) bool {
	switch {
	case isHTML(n, "input"):
		t := InputType(n)
		return (t == "checkbox" || t == "radio") && HasAttr(n, "checked")
	case isHTML(n, "option"):
		return IsSelected(n)
	}
	return false
}

// IsSelected reports the selectedness of an option. Without any selected
// attribute the first enabled option of a single select box is selected.
func IsSelected(option *html.Node) bool {
	if HasAttr(option, "selected") {
		return true
	}
	s := option.Parent
	if isHTML(s, "optgroup") {
		s = s.Parent
	}
	if !isHTML(s, "select") || HasAttr(s, "multiple") {
		return false
	} else if size, err := strconv.Atoi(AttrValue(s, "size")); err == nil && size > 1 {
		return false
	}
	for _, o := range options(s) {
		if HasAttr(o, "selected") {
			return false
		}
	}
	for _, o := range options(s) {
		if !IsDisabled(o) {
			return o == option
		}
	}
	return false
}

func IsIndeterminate(n *html.Node) bool {
	switch {
	case isHTML(n, "input") && InputType(n) == "checkbox":
		return HasAttr(n, "indeterminate")
	case isHTML(n, "input") && InputType(n) == "radio":
		for _, r := range radioGroup(n) {
			if HasAttr(r, "checked") {
				return false
			}
		}
		return true
	case isHTML(n, "progress"):
		return !HasAttr(n, "value")
	}
	return false
}

func IsDefault(n *html.Node) bool {
	switch {
	case isHTML(n, "input") && (InputType(n) == "checkbox" || InputType(n) == "radio"):
		return HasAttr(n, "checked")
	case isHTML(n, "option"):
		return HasAttr(n, "selected")
	case isSubmitButton(n):
		form := FormOwner(n)
		return form != nil && FindFirst(form, isSubmitButton) == n
	}
	return false
}

func IsRequired(n *html.Node) bool {
	switch {
	case isHTML(n, "input"):
		return !requiredExempt[InputType(n)] && HasAttr(n, "required")
	case isHTML(n, "select", "textarea"):
		return HasAttr(n, "required")
	}
	return false
}

func IsOptional(n *html.Node) bool {
	return isHTML(n, "input", "select", "textarea") && !IsRequired(n)
}

func IsReadWrite(n *html.Node) bool {
	switch {
	case isHTML(n, "input"):
		return readWriteTypes[InputType(n)] && !HasAttr(n, "readonly") && !IsDisabled(n)
	case isHTML(n, "textarea"):
		return !HasAttr(n, "readonly") && !IsDisabled(n)
	}
	return IsContentEditable(n)
}

func IsContentEditable(n *html.Node) bool {
	for ; IsElement(n); n = n.Parent {
		if v, ok := Attr(n, "contenteditable"); ok {
			switch strings.ToLower(v) {
			case "", "true", "plaintext-only":
				return true
			case "false":
				return false
			}
		}
	}
	return false
}

// IsTextEditable reports whether n accepts text input from the keyboard.
func IsTextEditable(n *html.Node) bool {
	return isHTML(n, "input") && readWriteTypes[InputType(n)] || isHTML(n, "textarea") || IsContentEditable(n)
}

// Value returns the current value of a form control.
func Value(n *html.Node) string {
	switch {
	case isHTML(n, "input"):
		v, ok := Attr(n, "value")
		if t := InputType(n); !ok && (t == "checkbox" || t == "radio") {
			return "on"
		} else if textTypes[t] {
			return newlineReplacer.Replace(v)
		}
		return v
	case isHTML(n, "textarea"):
		return Text(n)
	case isHTML(n, "select"):
		for _, o := range options(n) {
			if IsSelected(o) {
				return Value(o)
			}
		}
	case isHTML(n, "option"):
		if v, ok := Attr(n, "value"); ok {
			return v
		}
		return strings.Join(strings.Fields(Text(n)), " ")
	}
	return ""
}

func IsPlaceholderShown(n *html.Node) bool {
	switch {
	case isHTML(n, "input") && placeholderTypes[InputType(n)], isHTML(n, "textarea"):
		return HasAttr(n, "placeholder") && Value(n) == ""
	}
	return false
}

// Validity reports whether n takes part in constraint validation and if so
// whether it satisfies its constraints. Forms and fieldsets are valid if all
// their descendant controls are.
func Validity(n *html.Node) (candidate, valid bool) {
	switch {
	case isHTML(n, "form", "fieldset"):
		return true, FindFirst(n, func(c *html.Node) bool {
			candidate, valid := Validity(c)
			return candidate && !valid && !isHTML(c, "form", "fieldset")
		}) == nil
	case isHTML(n, "input"):
		if validationExempt[InputType(n)] || HasAttr(n, "readonly") || IsDisabled(n) {
			return false, false
		}
	case isHTML(n, "select", "textarea", "button"):
		if IsDisabled(n) || isHTML(n, "textarea") && HasAttr(n, "readonly") {
			return false, false
		} else if isHTML(n, "button") {
			return isSubmitButton(n), true
		}
	default:
		return false, false
	}
	return true, !valueMissing(n) && !typeMismatch(n) && !patternMismatch(n) && !rangeMismatch(n) && !stepMismatch(n)
}

// Range reports whether the range constraints (min, max) apply to n and
// whether its value is within them.
func Range(n *html.Node) (applies, inRange bool) {
	if !isHTML(n, "input") || !rangeTypes[InputType(n)] {
		return false, false
	}
	_, hasMin := Attr(n, "min")
	_, hasMax := Attr(n, "max")
	if InputType(n) != "range" && !hasMin && !hasMax {
		return false, false
	}
	return true, !rangeMismatch(n)
}

func IsLink(n *html.Node) bool {
	switch {
	case isHTML(n, "a", "area"):
		return HasAttr(n, "href")
	case IsElement(n) && n.Namespace == "svg" && n.Data == "a":
		_, ok := AttrNS(n, XLinkNamespace, "href")
		return ok || HasAttr(n, "href")
	}
	return false
}

// IsLocalLink reports whether n is a link to the document url, ignoring the
// fragment.
func IsLocalLink(n *html.Node, base *url.URL) bool {
	if !IsLink(n) || base == nil {
		return false
	}
	href, err := url.Parse(AttrValue(n, "href"))
	if err != nil {
		return false
	}
	target := base.ResolveReference(href)
	return target.Scheme == base.Scheme && target.Host == base.Host &&
		strings.TrimSuffix(target.Path, "/") == strings.TrimSuffix(base.Path, "/") && target.RawQuery == base.RawQuery
}

func IsEmpty(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode || c.Type == html.TextNode {
			return false
		}
	}
	return true
}

// IsOpen reports whether n is an element with an open/closed state
// (details, dialog) and currently open. ok is false for other elements.
func IsOpen(n *html.Node) (open, ok bool) {
	if isHTML(n, "details", "dialog") {
		return HasAttr(n, "open"), true
	}
	return false, false
}

// IsPopoverOpen reports whether n is a popover that is being shown. Popovers
// are hidden by default; showing one requires an inline display.
func IsPopoverOpen(n *html.Node) bool {
	if !HasAttr(n, "popover") {
		return false
	} else if d := Style(n)["display"]; d == "" || strings.EqualFold(d, "none") {
		return false
	}
	return IsVisible(n)
}

// FormOwner returns the form n belongs to via the form attribute or its
// closest form ancestor.
func FormOwner(n *html.Node) *html.Node {
	if id, ok := Attr(n, "form"); ok {
		if forms := ElementsByID(TreeRoot(n), id); len(forms) != 0 && isHTML(forms[0], "form") {
			return forms[0]
		}
		return nil
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if isHTML(p, "form") {
			return p
		}
	}
	return nil
}

func isSubmitButton(n *html.Node) bool {
	switch {
	case isHTML(n, "button"):
		t := strings.ToLower(AttrValue(n, "type"))
		return t != "reset" && t != "button"
	case isHTML(n, "input"):
		t := InputType(n)
		return t == "submit" || t == "image"
	}
	return false
}

func radioGroup(n *html.Node) []*html.Node {
	name := AttrValue(n, "name")
	if name == "" {
		return []*html.Node{n}
	}
	scope, form := TreeRoot(n), FormOwner(n)
	return FindAll(scope, func(r *html.Node) bool {
		return isHTML(r, "input") && InputType(r) == "radio" && AttrValue(r, "name") == name && FormOwner(r) == form
	})
}

func options(s *html.Node) []*html.Node {
	return FindAll(s, func(n *html.Node) bool { return isHTML(n, "option") })
}

func firstChild(n *html.Node, name string) *html.Node {
	for c := FirstElementChild(n); c != nil; c = NextElementSibling(c) {
		if isHTML(c, name) {
			return c
		}
	}
	return nil
}

func valueMissing(n *html.Node) bool {
	if !IsRequired(n) {
		return false
	}
	switch {
	case isHTML(n, "input") && InputType(n) == "checkbox":
		return !IsChecked(n)
	case isHTML(n, "input") && InputType(n) == "radio":
		for _, r := range radioGroup(n) {
			if IsChecked(r) {
				return false
			}
		}
		return true
	case isHTML(n, "input") && InputType(n) == "file":
		return true
	}
	return Value(n) == ""
}

func typeMismatch(n *html.Node) bool {
	v := Value(n)
	if !isHTML(n, "input") || v == "" {
		return false
	}
	switch InputType(n) {
	case "email":
		addresses := []string{v}
		if HasAttr(n, "multiple") {
			addresses = strings.Split(v, ",")
		}
		for _, address := range addresses {
			if !emailRegexp.MatchString(strings.Trim(address, whitespaceTrimmer)) {
				return true
			}
		}
	case "url":
		u, err := url.Parse(strings.Trim(v, whitespaceTrimmer))
		return err != nil || u.Scheme == ""
	}
	return false
}

func patternMismatch(n *html.Node) bool {
	pattern, ok := Attr(n, "pattern")
	if v := Value(n); !ok || v == "" || !isHTML(n, "input") || !placeholderTypes[InputType(n)] {
		return false
	} else if re, err := regexp.Compile("^(?:" + pattern + ")$"); err == nil {
		return !re.MatchString(v)
	}
	return false
}

func rangeMismatch(n *html.Node) bool {
	if !isHTML(n, "input") || !rangeTypes[InputType(n)] {
		return false
	}
	v := Value(n)
	if v == "" {
		return false
	}
	lo, hasMin := Attr(n, "min")
	hi, hasMax := Attr(n, "max")
	if t := InputType(n); t == "number" || t == "range" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return false
		}
		if t == "range" && !hasMin {
			lo, hasMin = "0", true
		}
		if t == "range" && !hasMax {
			hi, hasMax = "100", true
		}
		if min, err := strconv.ParseFloat(lo, 64); hasMin && err == nil && f < min {
			return true
		}
		max, err := strconv.ParseFloat(hi, 64)
		return hasMax && err == nil && f > max
	}
	// the remaining (date and time) formats sort lexicographically
	return hasMin && lo != "" && v < lo || hasMax && hi != "" && v > hi
}

func stepMismatch(n *html.Node) bool {
	if !isHTML(n, "input") || (InputType(n) != "number" && InputType(n) != "range") {
		return false
	}
	v, err := strconv.ParseFloat(Value(n), 64)
	if err != nil {
		return false
	}
	step, base := 1.0, 0.0
	if s, ok := Attr(n, "step"); ok {
		if strings.EqualFold(s, "any") {
			return false
		} else if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
			step = f
		}
	}
	if b, err := strconv.ParseFloat(AttrValue(n, "min"), 64); err == nil {
		base = b
	}
	q := (v - base) / step
	return math.Abs(q-math.Round(q)) > 1e-9
}
