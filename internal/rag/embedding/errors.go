package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrTransient covers rate limiting, timeouts and 5xx responses.
	ErrTransient = errors.New("embedding service temporarily unavailable")
	// ErrAuth means the credentials were refused.
	ErrAuth = errors.New("embedding service rejected credentials")
	// ErrConfig means the model, deployment or endpoint is wrong.
	ErrConfig = errors.New("embedding service misconfigured")
	// ErrRejected means the service refused this particular input.
	ErrRejected  = errors.New("embedding service rejected input")
	ErrEmptyText = errors.New("embedding text is empty")
)

// ClassifyStatus maps an HTTP status code onto the sentinel errors.
// A zero or 2xx code returns nil.
func ClassifyStatus(code int) error {
	switch {
	case code == 0 || (code >= 200 && code < 300):
		return nil
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return ErrTransient
	case code >= 500:
		return ErrTransient
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrAuth
	case code == http.StatusNotFound:
		return ErrConfig
	default:
		return ErrRejected
	}
}

// Wrap attaches the matching sentinel to err. Errors that carry no status
// code are classified by their network behaviour: timeouts and dropped
// connections are transient, anything else is left as is.
func Wrap(provider string, code int, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if kind := ClassifyStatus(code); kind != nil {
		return fmt.Errorf("%s: %w: %w", provider, kind, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", provider, ErrTransient, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %w", provider, ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", provider, err)
}

// IsFatal reports errors that will fail every file, not only the current one.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrConfig)
}
