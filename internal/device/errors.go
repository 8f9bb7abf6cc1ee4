package device

import (
	"fmt"
)

// TransportError indicates the request never completed: connection failure,
// timeout, or a broken response body.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError indicates a device read returned a non-200 status code.
type HTTPStatusError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// ParseError indicates a device response could not be decoded, or was missing
// required fields.
type ParseError struct {
	Err  error
	Body []byte
}

func (e *ParseError) Error() string {
	return "parse: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CommandError indicates a state-changing command was rejected by the device.
type CommandError struct {
	StatusCode int
	Body       []byte
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command failed with http status %d", e.StatusCode)
}
