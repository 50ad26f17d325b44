package oadigest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
)

// Application error codes.
const (
	EINTERNAL      = "internal"
	EINVALID       = "invalid"
	ENOTFOUND      = "not_found"
	ENOTCONFIGURED = "not_configured"
	ETIMEOUT       = "timeout"
	EUNAVAILABLE   = "unavailable"
	ESTATUS        = "bad_status"
	EMALFORMED     = "malformed"
	EPARSE         = "parse"
	EEMPTY         = "empty"
)

// Error represents an application-specific error.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("oadigest error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// TransportError classifies a network failure as ETIMEOUT, EUNAVAILABLE or
// EINTERNAL, keeping the original message.
func TransportError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Errorf(ETIMEOUT, "%v", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return Errorf(ETIMEOUT, "%v", err)
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr):
		return Errorf(EUNAVAILABLE, "%v", err)
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return Errorf(EUNAVAILABLE, "%v", err)
	}
	return Errorf(EINTERNAL, "%v", err)
}
