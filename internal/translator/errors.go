package translator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// ErrorKind classifies backend failures for the retry policy.
type ErrorKind int

const (
	// KindTransient covers network failures, rate limits and server errors.
	KindTransient ErrorKind = iota
	// KindAuth covers rejected or missing credentials.
	KindAuth
	// KindConfig covers requests the backend will never accept as sent
	// (unknown model, bad endpoint, malformed request).
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindAuth:
		return "auth"
	case KindConfig:
		return "config"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// BackendError is returned by every Backend implementation.
type BackendError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int // 0 when no HTTP response was received
	Message    string
	Cause      error
}

func (e *BackendError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether another attempt may succeed.
func (e *BackendError) Retryable() bool {
	return e.Kind == KindTransient
}

// IsRetryable determines if an error should trigger a retry.
// Auth and config failures, as well as cancellation, are final. Unknown
// errors are retried only when they look like network failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}

// errorFromStatus maps an HTTP status returned by a provider to a BackendError.
func errorFromStatus(provider string, status int, message string, cause error) *BackendError {
	kind := KindTransient
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
		if message == "" {
			message = "authentication failed"
		}
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout:
		kind = KindTransient
		if message == "" {
			message = "rate limit exceeded"
		}
	case status >= 500:
		kind = KindTransient
		if message == "" {
			message = "server error"
		}
	case status >= 400:
		kind = KindConfig
		if message == "" {
			message = "invalid request"
		}
	}
	if message == "" {
		message = "request failed"
	}
	return &BackendError{Kind: kind, Provider: provider, StatusCode: status, Message: message, Cause: cause}
}

var statusPattern = regexp.MustCompile(`status(?: code)?[:= ]+(\d{3})`)

// errorFromText classifies an error that only carries its status in the
// message text.
func errorFromText(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	msg := err.Error()
	if m := statusPattern.FindStringSubmatch(msg); m != nil {
		if status, convErr := strconv.Atoi(m[1]); convErr == nil {
			return errorFromStatus(provider, status, "", err)
		}
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "invalid api key"),
		strings.Contains(lower, "incorrect api key"),
		strings.Contains(lower, "unauthorized"):
		return &BackendError{Kind: KindAuth, Provider: provider, Message: "authentication failed", Cause: err}
	case strings.Contains(lower, "model_not_found"),
		strings.Contains(lower, "does not exist"),
		strings.Contains(lower, "unsupported protocol scheme"):
		return &BackendError{Kind: KindConfig, Provider: provider, Message: "invalid request", Cause: err}
	}
	return &BackendError{Kind: KindTransient, Provider: provider, Message: "request failed", Cause: err}
}
