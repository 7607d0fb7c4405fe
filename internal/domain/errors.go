package domain

import (
	"errors"
	"fmt"
)

// Error classes for a poll cycle. Callers classify with errors.Is.
var (
	// ErrNetwork covers connection failures and timeouts
	ErrNetwork = errors.New("network error")
	// ErrServer covers any non-200 response
	ErrServer = errors.New("server error")
	// ErrParse covers malformed bodies and missing fields
	ErrParse = errors.New("parse error")
	// ErrImageFetch covers every album art download failure
	ErrImageFetch = errors.New("image fetch error")
)

// ServerError carries the status code of an unexpected response.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// Is makes a ServerError match ErrServer.
func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}

// Kind returns a short label for logging an error's class.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrImageFetch):
		return "image_fetch"
	case errors.Is(err, ErrServer):
		return "server"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrNetwork):
		return "network"
	default:
		return "unknown"
	}
}
