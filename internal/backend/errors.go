package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrStatus indicates the backend answered with a non-2xx status.
type ErrStatus struct {
	Operation  string
	StatusCode int
	// Message is the server's human-readable message, if any.
	Message string
}

func (e *ErrStatus) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s failed: %d %s", e.Operation, e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether retrying the request may succeed.
func (e *ErrStatus) Temporary() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ErrUnavailable indicates the backend could not be reached.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend unavailable: %v", e.Err)
	}
	return "backend unavailable"
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the backend returned a payload that does not
// match the expected shape.
type ErrInvalidResponse struct {
	Operation string
	Content   json.RawMessage
	Err       error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid %s response: %v", e.Operation, e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrIncompatible indicates the backend is older than the client supports.
type ErrIncompatible struct {
	Version    string
	MinVersion string
}

func (e *ErrIncompatible) Error() string {
	return fmt.Sprintf("backend version %s is older than required %s", e.Version, e.MinVersion)
}
