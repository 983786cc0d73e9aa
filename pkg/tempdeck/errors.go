package tempdeck

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the failure modes of the tempdeck protocol.
type ErrorKind int

const (
	// ErrorDeviceNotFound means discovery did not turn up a matching device.
	ErrorDeviceNotFound ErrorKind = iota + 1

	// ErrorResponseTimeout means no newline-terminated line arrived within
	// the read timeout. Usually a non-responsive or misidentified device.
	ErrorResponseTimeout

	// ErrorInvalidResponse means a received line violates the expected
	// format: missing key, unparsable value, or unexpected ack text.
	ErrorInvalidResponse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorDeviceNotFound:
		return "device not found"
	case ErrorResponseTimeout:
		return "response timeout"
	case ErrorInvalidResponse:
		return "invalid response"
	default:
		return fmt.Sprintf("unknown error kind %d", int(k))
	}
}

// Error is a tempdeck protocol or discovery error. Callers match on Kind
// rather than on distinct error types. Response carries the offending raw
// line when one exists.
type Error struct {
	Kind     ErrorKind
	Message  string
	Response string
}

func (e *Error) Error() string {
	if e.Response != "" {
		return fmt.Sprintf("%s: %s (response %q)", e.Kind, e.Message, e.Response)
	}
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf returns the ErrorKind of err, or 0 if err did not originate from
// this package (for example a serial open failure, which is passed through
// unmodified).
func KindOf(err error) ErrorKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}

func errDeviceNotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrorDeviceNotFound, Message: fmt.Sprintf(format, args...)}
}

func errResponseTimeout(message string) *Error {
	return &Error{Kind: ErrorResponseTimeout, Message: message}
}

func errInvalidResponse(response string, format string, args ...any) *Error {
	return &Error{Kind: ErrorInvalidResponse, Message: fmt.Sprintf(format, args...), Response: response}
}
