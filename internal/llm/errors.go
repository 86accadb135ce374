package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
)

// ConfigurationError indicates a provider cannot be called at all, usually a
// missing API key. Callers fail fast instead of burning an attempt.
type ConfigurationError struct {
	Provider model.ProviderID
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("llm: provider %s not configured: %s", e.Provider, e.Reason)
}

// IsNotConfigured returns true if the error chain contains a ConfigurationError.
func IsNotConfigured(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// httpStatuser is satisfied by the APIError types of the provider packages.
type httpStatuser interface {
	HTTPStatus() int
}

// HTTPStatus extracts the HTTP status code from a provider error chain, or 0
// when the error did not come from an HTTP response.
func HTTPStatus(err error) int {
	var hs httpStatuser
	if errors.As(err, &hs) {
		return hs.HTTPStatus()
	}
	return 0
}

// IsTimeout returns true if the error is a deadline expiry or a network
// timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsAuthError reports whether an error looks like a credential rejection.
// A rejected key fails every subsequent call the same way, so callers use
// this to stop sending requests to the provider for the rest of a run.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if IsNotConfigured(err) {
		return true
	}
	switch HTTPStatus(err) {
	case 401, 403:
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range []string{"api key", "unauthorized", "authentication"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
