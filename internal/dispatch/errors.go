package dispatch

import (
	"errors"
)

// Every failed response carries one of these kinds.
var (
	ErrMalformedRequest    = errors.New("malformed request")
	ErrUnknownMethod       = errors.New("unknown method")
	ErrInvalidParameters   = errors.New("invalid parameters")
	ErrMissingContext      = errors.New("missing context")
	ErrConcurrencyExceeded = errors.New("too many concurrent actions")
	ErrTimeout             = errors.New("action timed out")
	ErrHandlerFailure      = errors.New("action failed")
	ErrDisabled            = errors.New("dispatcher is disabled")
	ErrRestricted          = errors.New("restricted function")
	ErrCanceled            = errors.New("action canceled")
)

// Response codes.
const (
	CodeMalformedRequest    = "MALFORMED_REQUEST"
	CodeUnknownMethod       = "UNKNOWN_METHOD"
	CodeInvalidParameters   = "INVALID_PARAMETERS"
	CodeMissingContext      = "MISSING_CONTEXT"
	CodeConcurrencyExceeded = "CONCURRENCY_EXCEEDED"
	CodeTimeout             = "TIMEOUT"
	CodeHandlerFailure      = "HANDLER_FAILURE"
	CodeDisabled            = "DISABLED"
	CodeRestricted          = "RESTRICTED"
	CodeCanceled            = "CANCELED"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrMalformedRequest, CodeMalformedRequest},
	{ErrUnknownMethod, CodeUnknownMethod},
	{ErrInvalidParameters, CodeInvalidParameters},
	{ErrMissingContext, CodeMissingContext},
	{ErrConcurrencyExceeded, CodeConcurrencyExceeded},
	{ErrTimeout, CodeTimeout},
	{ErrDisabled, CodeDisabled},
	{ErrRestricted, CodeRestricted},
	{ErrCanceled, CodeCanceled},
	{ErrHandlerFailure, CodeHandlerFailure},
}

// Code maps an error to its response code. Errors of no known kind are
// handler failures.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeHandlerFailure
}

// isKind reports whether err already carries a dispatch error kind.
func isKind(err error) bool {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return true
		}
	}
	return false
}
