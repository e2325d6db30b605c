package server

import (
	"errors"
	"strings"
)

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrMalformedEvent    = errors.New("malformed event")
	ErrInvalidEvent      = errors.New("invalid event")
	ErrUnrecognizedEvent = errors.New("unrecognized event type")
)

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
