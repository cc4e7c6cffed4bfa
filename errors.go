package restrequest

import (
	"errors"
	"fmt"
	"time"
)

// Error types carried in ClientError.Type.
const (
	ErrorTypeTransport   = "TransportError"
	ErrorTypeEnvironment = "EnvironmentError"
	ErrorTypeParse       = "ParseError"
	ErrorTypeOption      = "OptionError"
	ErrorTypeValidation  = "ValidationError"
)

// Sentinel errors; match any ClientError of the same type with errors.Is.
var (
	// ErrTransport matches network / transfer failures.
	ErrTransport = &ClientError{Type: ErrorTypeTransport, Message: "transfer failed"}

	// ErrEnvironment matches a missing transfer capability.
	ErrEnvironment = &ClientError{Type: ErrorTypeEnvironment, Message: "transfer capability unavailable"}

	// ErrParse matches body decoding failures.
	ErrParse = &ClientError{Type: ErrorTypeParse, Message: "cannot decode body"}

	// ErrOption matches option values the transfer handle rejected.
	ErrOption = &ClientError{Type: ErrorTypeOption, Message: "invalid option"}
)

// ClientError is the error type returned by every operation in this package.
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	RequestID  string
	Method     string
	URL        string
	Endpoint   string
	StatusCode int
	Timestamp  time.Time
	Duration   time.Duration
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil && e.Cause.Error() != e.Message {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.Endpoint != "" {
		info += fmt.Sprintf("Endpoint: %s\n", e.Endpoint)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

// IsTransportError reports whether err is a transfer failure.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsEnvironmentError reports whether err means the transfer backend is unavailable.
func IsEnvironmentError(err error) bool {
	return errors.Is(err, ErrEnvironment)
}

// IsParseError reports whether err is a body decoding failure.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

func newParseError(format string, cause error) *ClientError {
	return &ClientError{
		Type:      ErrorTypeParse,
		Message:   fmt.Sprintf("malformed %s body", format),
		Cause:     cause,
		Timestamp: time.Now(),
	}
}
