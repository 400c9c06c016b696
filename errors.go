package exprtree

import (
	"errors"
	"fmt"
)

// Parse failures. Every error returned by ToRPN, RPNToAST and Parse wraps
// exactly one of these, so callers can test with errors.Is.
var (
	ErrMismatchedParenthesis = errors.New("mismatched parenthesis")
	ErrMalformedExpression   = errors.New("malformed expression")
	ErrUnreducibleExpression = errors.New("unreducible expression")
	ErrUnknownCharacter      = errors.New("unknown character")
)

// ParseError carries the failure kind plus the offending token.
type ParseError struct {
	Kind  error  // one of the Err* sentinels above
	Pos   int    // byte offset in the source, -1 when not tied to a token
	Value string // literal text of the offending token, if any
	Msg   string
}

func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	if e.Pos >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Pos)
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Kind }

func parseErr(kind error, tok Token, msg string) *ParseError {
	return &ParseError{Kind: kind, Pos: tok.Pos, Value: tok.Text, Msg: msg}
}

// errorLabel maps a parse error to the metrics label used for it.
func errorLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMismatchedParenthesis):
		return "mismatched_parenthesis"
	case errors.Is(err, ErrMalformedExpression):
		return "malformed_expression"
	case errors.Is(err, ErrUnreducibleExpression):
		return "unreducible_expression"
	case errors.Is(err, ErrUnknownCharacter):
		return "unknown_character"
	}
	return "other"
}
