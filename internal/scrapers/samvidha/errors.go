package samvidha

import (
	"errors"
	"fmt"
)

// ErrorKind is the category of a failed fetch or parse, callers use it to decide
// what to do next (ex. re-authenticate on SESSION_EXPIRED).
type ErrorKind string

const (
	NetworkError   ErrorKind = "NETWORK_ERROR"
	SessionExpired ErrorKind = "SESSION_EXPIRED"
	ParseError     ErrorKind = "PARSE_ERROR"
	GenericError   ErrorKind = "GENERIC_ERROR"
)

// ErrInvalidCredentials is returned by Login when the portal does not show the
// authenticated dashboard after submitting the credentials.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Error is the tagged failure every fetch and parse operation converts its internal
// failures into.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case NetworkError, SessionExpired:
		return string(e.Kind)
	case GenericError:
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	default:
		return e.Detail
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, &Error{Kind: k}) match any error of kind k.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Detail == "" && t.Err == nil
}

// KindOf returns the ErrorKind of err, errors that were not produced by this package
// are GENERIC_ERROR.
func KindOf(err error) ErrorKind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return GenericError
}

func parseErrorf(format string, args ...any) *Error {
	return &Error{Kind: ParseError, Detail: fmt.Sprintf(format, args...)}
}

func genericError(err error) *Error {
	return &Error{Kind: GenericError, Detail: err.Error(), Err: err}
}
