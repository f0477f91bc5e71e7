// Package result defines the typed outcome shape returned by every
// engine operation. The transport layer maps each kind to a status code
// 1:1 and never sees raw errors.
package result

import "fmt"

// Kind classifies an operation outcome.
type Kind int

// Outcome kinds
const (
	KindOK Kind = iota
	KindCreated
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindFailure
)

// String returns the kind's display name.
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindCreated:
		return "created"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindFailure:
		return "failure"
	}
	return "unknown"
}

// Result carries either data (OK/Created) or a classified failure.
// Reason is human-readable and safe to display; Err is the underlying
// cause on Failure and is for server-side logging only.
type Result[T any] struct {
	Kind   Kind
	Data   T
	Reason string
	Err    error
}

// IsSuccess reports whether the result carries data.
func (r Result[T]) IsSuccess() bool {
	return r.Kind == KindOK || r.Kind == KindCreated
}

// OK returns a success result with data.
func OK[T any](data T) Result[T] {
	return Result[T]{Kind: KindOK, Data: data}
}

// Created returns a creation result with data.
func Created[T any](data T) Result[T] {
	return Result[T]{Kind: KindCreated, Data: data}
}

// BadRequest returns an invariant-violation result.
func BadRequest[T any](format string, args ...any) Result[T] {
	return Result[T]{Kind: KindBadRequest, Reason: fmt.Sprintf(format, args...)}
}

// Unauthorized returns a result for an unresolvable actor.
func Unauthorized[T any](format string, args ...any) Result[T] {
	return Result[T]{Kind: KindUnauthorized, Reason: fmt.Sprintf(format, args...)}
}

// Forbidden returns a result for an actor lacking rights.
func Forbidden[T any](format string, args ...any) Result[T] {
	return Result[T]{Kind: KindForbidden, Reason: fmt.Sprintf(format, args...)}
}

// NotFound returns a result for an absent entity. Also used for
// entities outside the actor's tenancy, to avoid leaking existence.
func NotFound[T any](format string, args ...any) Result[T] {
	return Result[T]{Kind: KindNotFound, Reason: fmt.Sprintf(format, args...)}
}

// Failure wraps an unexpected error. The reason shown to callers is
// generic; err carries full detail for logging.
func Failure[T any](err error) Result[T] {
	return Result[T]{Kind: KindFailure, Reason: "internal error", Err: err}
}
