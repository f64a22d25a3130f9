package host

import (
	"errors"
	"fmt"
	"net/http"
)

// UpstreamError reports a failed call to the host service.
type UpstreamError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (HTTP %d): %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, msg)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is an upstream 401.
func IsUnauthorized(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == http.StatusUnauthorized
}
