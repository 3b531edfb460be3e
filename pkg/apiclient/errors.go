package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel causes wrapped by *Error.
var (
	ErrTimeout      = errors.New("request timed out")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNetwork      = errors.New("network failure")
	ErrBadEnvelope  = errors.New("malformed response body")
)

// Kind groups failures the way the console reacts to them.
type Kind uint8

const (
	KindNetwork Kind = iota
	KindTimeout
	KindUnauthorized
	KindClient
	KindServer
	KindApplication
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindUnauthorized:
		return "unauthorized"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindApplication:
		return "application"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a failed API call.
type Error struct {
	// Method and Path identify the call.
	Method string
	Path   string

	// Status is the HTTP status, 0 when no response arrived.
	Status int

	// Code is the application code from the envelope, 0 when absent.
	Code int

	// Message is the backend's message, or a generic one.
	Message string

	// Data is the envelope payload, if any.
	Data json.RawMessage

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Status == 0:
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, msg)
	case e.Code != 0:
		return fmt.Sprintf("%s %s: status %d, code %d: %s", e.Method, e.Path, e.Status, e.Code, msg)
	default:
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the call may succeed if repeated: no response
// at all, a 5xx status, or a client-side timeout.
func (e *Error) Retryable() bool {
	if errors.Is(e.Err, ErrTimeout) || errors.Is(e.Err, ErrNetwork) {
		return true
	}
	return e.Status >= 500 && e.Status < 600
}

// Kind classifies the failure.
func (e *Error) Kind() Kind {
	switch {
	case errors.Is(e.Err, ErrTimeout):
		return KindTimeout
	case e.Status == http.StatusUnauthorized:
		return KindUnauthorized
	case errors.Is(e.Err, ErrBadEnvelope):
		return KindDecode
	case e.Status == 0:
		return KindNetwork
	case e.Status >= 500:
		return KindServer
	case e.Status >= 400:
		return KindClient
	default:
		return KindApplication
	}
}

// StatusOf returns the HTTP status carried by err, 0 if none.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// MessageOf returns the backend message carried by err, or err's text.
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
