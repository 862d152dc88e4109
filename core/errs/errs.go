// Package errs holds the storefront error taxonomy. Every failure that
// crosses the commerce backend boundary is converted to one of these kinds
// before it reaches a reconciler or a view.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes storefront errors.
type Kind string

const (
	// KindAuthRequired: no session or user identity; nothing was sent.
	KindAuthRequired Kind = "AUTH_REQUIRED"

	// KindValidation: a client-side constraint blocked the action.
	KindValidation Kind = "VALIDATION_REJECTED"

	// KindNetwork: the request did not complete (transport, timeout, 5xx).
	KindNetwork Kind = "NETWORK_FAILURE"

	// KindBusiness: the backend understood the request and refused it.
	KindBusiness Kind = "BUSINESS_REJECTION"

	// KindStale: a response to a superseded request. Never shown to users.
	KindStale Kind = "STALE_RESPONSE"
)

// Error is the single error type surfaced by the storefront packages.
type Error struct {
	Kind Kind

	// Op names the operation, e.g. "cart.update_quantity".
	Op string

	// Message is user-presentable; for business rejections it is the
	// backend message verbatim.
	Message string

	// Field is set for validation errors bound to one input.
	Field string

	// Status is the HTTP status when one was received.
	Status int

	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Op != "" && e.Field != "":
		return fmt.Sprintf("%s: %s: %s: %s", e.Op, e.Kind, e.Field, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func AuthRequired(op string) *Error {
	return &Error{Kind: KindAuthRequired, Op: op, Message: "login required"}
}

func Validation(op, field, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Field: field, Message: msg}
}

func Network(op string, status int, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Status: status, Err: err}
}

func Business(op string, status int, msg string) *Error {
	return &Error{Kind: KindBusiness, Op: op, Status: status, Message: msg}
}

func Stale(op string, seq, latest int64) *Error {
	return &Error{Kind: KindStale, Op: op, Message: fmt.Sprintf("response seq=%d superseded by seq=%d", seq, latest)}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the user-presentable message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func IsAuthRequired(err error) bool { return KindOf(err) == KindAuthRequired }

func IsValidation(err error) bool { return KindOf(err) == KindValidation }

func IsNetwork(err error) bool { return KindOf(err) == KindNetwork }

func IsBusiness(err error) bool { return KindOf(err) == KindBusiness }

func IsStale(err error) bool { return KindOf(err) == KindStale }
