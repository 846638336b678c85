// Package pdf handles the document ends of the pipeline: inspecting and
// rasterizing the scanned input, and rendering the bilingual output as PDF or
// Word.
package pdf

import "fmt"

// PDFInfo PDF 文件信息
type PDFInfo struct {
	FilePath  string `json:"file_path"`
	FileName  string `json:"file_name"`
	PageCount int    `json:"page_count"`
	FileSize  int64  `json:"file_size"`
	IsTextPDF bool   `json:"is_text_pdf"` // 已含文本层，通常无需 OCR
}

// PageImage 一页光栅化后的图片
type PageImage struct {
	PageIndex int    `json:"page_index"` // 0-based
	Path      string `json:"path"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// PageNumber returns the 1-based page number.
func (p PageImage) PageNumber() int {
	return p.PageIndex + 1
}

// PageImageName is the file name used for the image of a 0-based page index.
func PageImageName(pageIndex int) string {
	return fmt.Sprintf("page_%04d.png", pageIndex+1)
}

// PDFErrorCode 错误代码枚举
type PDFErrorCode string

const (
	ErrPDFNotFound    PDFErrorCode = "PDF_NOT_FOUND"
	ErrPDFInvalid     PDFErrorCode = "PDF_INVALID"
	ErrPDFEncrypted   PDFErrorCode = "PDF_ENCRYPTED"
	ErrPageRange      PDFErrorCode = "PAGE_RANGE_INVALID"
	ErrRasterFailed   PDFErrorCode = "RASTER_FAILED"
	ErrGenerateFailed PDFErrorCode = "GENERATE_FAILED"
	ErrFontNotFound   PDFErrorCode = "FONT_NOT_FOUND"
	ErrCancelled      PDFErrorCode = "CANCELLED"
)

// PDFError PDF 处理错误
type PDFError struct {
	Code    PDFErrorCode `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
	Page    int          `json:"page,omitempty"` // 1-based, 0 when not page specific
	Cause   error        `json:"-"`
}

// Error implements the error interface for PDFError
func (e *PDFError) Error() string {
	msg := e.Message
	if e.Page > 0 {
		msg = fmt.Sprintf("%s (page %d)", msg, e.Page)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause of the error
func (e *PDFError) Unwrap() error {
	return e.Cause
}

// IsInputError reports whether the error was caused by the user's input file
// or arguments rather than by processing.
func (e *PDFError) IsInputError() bool {
	switch e.Code {
	case ErrPDFNotFound, ErrPDFInvalid, ErrPDFEncrypted, ErrPageRange:
		return true
	}
	return false
}

// NewPDFError creates a new PDFError with the given code, message, and optional cause
func NewPDFError(code PDFErrorCode, message string, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewPDFErrorWithDetails creates a new PDFError with details
func NewPDFErrorWithDetails(code PDFErrorCode, message, details string, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// NewPDFErrorWithPage creates a new PDFError tied to a 1-based page number
func NewPDFErrorWithPage(code PDFErrorCode, message string, page int, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Page:    page,
		Cause:   cause,
	}
}
