// Package apperr defines the error kinds shared by the store, the lifecycle
// coordinator and the HTTP adapter.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the session should react to it.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConnectivity
	KindNotFound
	KindPermission
	KindAuthentication
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConnectivity:
		return "connectivity"
	case KindNotFound:
		return "not_found"
	case KindPermission:
		return "permission"
	case KindAuthentication:
		return "authentication"
	default:
		return "internal"
	}
}

// Sentinels usable with errors.Is.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrConnectivity   = &Error{Kind: KindConnectivity}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrPermission     = &Error{Kind: KindPermission}
	ErrAuthentication = &Error{Kind: KindAuthentication}
)

// Error is a classified error. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Validation reports a blank field or a missing selection.
func Validation(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a referenced row that does not exist.
func NotFound(op, entity string, id int64) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf("%s %d not found", entity, id)}
}

// Permission reports an operation the current actor may not run.
func Permission(op, format string, args ...any) error {
	return &Error{Kind: KindPermission, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Authentication reports a failed login.
func Authentication(op, format string, args ...any) error {
	return &Error{Kind: KindAuthentication, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Connectivity wraps a durable store failure.
func Connectivity(op string, err error) error {
	return &Error{Kind: KindConnectivity, Op: op, Msg: "durable store unavailable", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsDomain reports whether err is a validation, not-found or permission
// error, i.e. one that must abort an operation instead of triggering fallback.
func IsDomain(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindNotFound, KindPermission:
		return true
	}
	return false
}
