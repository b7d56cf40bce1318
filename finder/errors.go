package finder

import (
	"errors"
	"fmt"
)

// ErrorKind names the DOMException-like class of an Error.
type ErrorKind string

const (
	// SyntaxError indicates malformed selector text or an unknown pseudo-class.
	SyntaxError ErrorKind = "SyntaxError"
	// NotSupportedError indicates a recognized but unimplemented selector.
	NotSupportedError ErrorKind = "NotSupportedError"
	// TypeError indicates a node of the wrong type was passed.
	TypeError ErrorKind = "TypeError"
)

// Sentinels for errors.Is; they match any Error of the same kind.
var (
	ErrSyntax       = &Error{Kind: SyntaxError}
	ErrNotSupported = &Error{Kind: NotSupportedError}
	ErrType         = &Error{Kind: TypeError}
)

type Error struct {
	Kind     ErrorKind
	Selector string
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	s := string(e.Kind) + ": " + e.Msg
	if e.Selector != "" {
		s += fmt.Sprintf(" (selector %q)", e.Selector)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

func syntaxError(msg string, args ...any) *Error {
	return &Error{Kind: SyntaxError, Msg: fmt.Sprintf(msg, args...)}
}

func notSupportedError(msg string, args ...any) *Error {
	return &Error{Kind: NotSupportedError, Msg: fmt.Sprintf(msg, args...)}
}

// withSelector returns err annotated with the selector text.
func withSelector(err error, selector string) error {
	e := &Error{}
	if errors.As(err, &e) && e.Selector == "" {
		annotated := *e
		annotated.Selector = selector
		return &annotated
	}
	return err
}
