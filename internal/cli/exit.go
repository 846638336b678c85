package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"ocr-translator/internal/pdf"
	"ocr-translator/internal/translator"
	"ocr-translator/internal/types"
)

// Process exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitInput   = 2
	ExitConfig  = 3
)

// usageError marks bad command-line usage (unknown flag, wrong argument count).
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// ExitCode maps an error chain to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var berr *translator.BackendError
	if errors.As(err, &berr) && !berr.Retryable() {
		return ExitConfig
	}
	if types.IsCode(err, types.ErrConfig) {
		return ExitConfig
	}

	var perr *pdf.PDFError
	if errors.As(err, &perr) {
		if perr.Code == pdf.ErrFontNotFound {
			return ExitConfig
		}
		if perr.IsInputError() {
			return ExitInput
		}
	}
	var uerr *usageError
	if errors.As(err, &uerr) {
		return ExitInput
	}
	if types.IsCode(err, types.ErrInvalidInput) || types.IsCode(err, types.ErrFileNotFound) {
		return ExitInput
	}
	return ExitFailure
}

// printDiagnostic writes err as a single stderr line.
func printDiagnostic(w io.Writer, err error) {
	msg := strings.Join(strings.Fields(err.Error()), " ")
	fmt.Fprintf(w, "ocr-translator: %s\n", msg)
}
