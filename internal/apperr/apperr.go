// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package apperr classifies failures into the kinds the assistant reports to
// users: validation problems caught locally, configuration problems on the
// server, and upstream gateway failures. Each error carries a user-facing
// message separate from its diagnostic cause.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindUpstream      Kind = "upstream"
	KindInternal      Kind = "internal"
)

// User-facing messages shared across the server and the controller.
const (
	MsgConfiguration = "configuration error, contact administrator"
	MsgExtractFailed = "unable to extract references from this document"
	MsgSearchFailed  = "search failed, try again later"
	MsgInternal      = "internal error"
)

// Error is an application error. Message is safe to show to users; Cause
// holds the diagnostic detail and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation returns a validation error with the given user message.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Configuration wraps cause as a configuration error. The user message never
// includes the cause.
func Configuration(cause error) *Error {
	return &Error{Kind: KindConfiguration, Message: MsgConfiguration, Cause: cause}
}

// Upstream wraps cause as an upstream failure reported to users as msg.
func Upstream(msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage returns the text to show a user for err. Errors outside the
// taxonomy fall back to fallback so internal detail never leaks.
func UserMessage(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}
