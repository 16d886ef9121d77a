// Package manifest implements the manifest DSL described in the
// engine's language specification: a lexer, a parser producing a typed
// AST, and an evaluator that walks the AST dispatching to command,
// condition and with-wrapper builders registered in a process-wide
// inventory.
package manifest

import "fmt"

// Location identifies where in the source a token or statement came from.
type Location struct {
	Offset int
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Range spans from Start to End, both inclusive of their own token.
type Range struct {
	Start, End Location
}

func (r Range) String() string {
	if r.Start == r.End {
		return r.Start.String()
	}
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// Error carries the source range at which it was raised, so that errors
// bubbling up through the evaluator can be reported with line/column
// information.
type Error struct {
	Range Range
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Range, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AtRange wraps err with r, unless err is already nil.
func AtRange(r Range, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Range: r, Err: err}
}
