package types

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  NewAppError(ErrConfig, "missing api key", nil),
			want: "missing api key",
		},
		{
			name: "with details",
			err:  NewAppErrorWithDetails(ErrInvalidInput, "bad page range", "5-2", nil),
			want: "bad page range: 5-2",
		},
		{
			name: "with cause",
			err:  NewAppError(ErrFileNotFound, "input not found", errors.New("stat a.pdf: no such file")),
			want: "input not found: stat a.pdf: no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewAppError(ErrInternal, "wrapped", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	var appErr *AppError
	if !errors.As(fmt.Errorf("outer: %w", err), &appErr) {
		t.Fatal("errors.As should find the AppError")
	}
	if appErr.Code != ErrInternal {
		t.Errorf("Code = %s, want %s", appErr.Code, ErrInternal)
	}
}

func TestIsCode(t *testing.T) {
	inner := NewAppError(ErrConfig, "no credential", nil)
	outer := NewAppError(ErrTranslation, "translate stage failed", inner)
	wrapped := fmt.Errorf("run-all: %w", outer)

	if !IsCode(wrapped, ErrTranslation) {
		t.Error("expected outer code to match")
	}
	if !IsCode(wrapped, ErrConfig) {
		t.Error("expected nested code to match")
	}
	if IsCode(wrapped, ErrOCR) {
		t.Error("unexpected match for ErrOCR")
	}
	if IsCode(nil, ErrConfig) {
		t.Error("nil error should never match")
	}
}

func TestConfigDurations(t *testing.T) {
	cfg := Config{RetryDelaySeconds: 1.5, RequestIntervalMs: 500, TimeoutSeconds: 180}

	if cfg.RetryDelay() != 1500*time.Millisecond {
		t.Errorf("RetryDelay() = %v", cfg.RetryDelay())
	}
	if cfg.RequestInterval() != 500*time.Millisecond {
		t.Errorf("RequestInterval() = %v", cfg.RequestInterval())
	}
	if cfg.Timeout() != 3*time.Minute {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}
}
