// Package translator turns per-page OCR text into per-page translations.
//
// Pages are joined into one stream with page-break markers so sentences that
// cross a page boundary reach the model together, the stream is cut into
// units that fit the character budget, and the model output is split back
// into pages.
package translator

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultModel is the default OpenAI-compatible model
	DefaultModel = "gpt-4o-mini"
	// DefaultTemperature keeps translations close to the source
	DefaultTemperature = 0.3
	// DefaultTimeout is the per-request timeout for backend calls
	DefaultTimeout = 180 * time.Second
	// DefaultMaxTokens bounds the response length for providers that require it
	DefaultMaxTokens = 8192
)

// Request is one translation call.
type Request struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
	// Context is appended to the system prompt; empty for plain text.
	Context string
}

// Backend translates text. Implementations return *BackendError so the retry
// policy can tell auth/config failures from transient ones.
type Backend interface {
	Translate(ctx context.Context, req Request) (string, error)
	// Name identifies the backend in logs and cache keys.
	Name() string
}

// BuildSystemPrompt creates the system prompt for a translation request.
func BuildSystemPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional translator. Translate the following text from %s to %s.\n\n",
		req.SourceLanguage, req.TargetLanguage)
	b.WriteString("Requirements:\n")
	b.WriteString("1. Maintain the original meaning and tone\n")
	fmt.Fprintf(&b, "2. Use natural and fluent %s expressions\n", req.TargetLanguage)
	b.WriteString("3. Preserve any formatting, such as line breaks and paragraph structure\n")
	b.WriteString("4. For technical terms, provide accurate translations\n")
	b.WriteString("5. Only output the translated text, without any explanations or additional content")
	if req.Context != "" {
		b.WriteString("\n\nContext: ")
		b.WriteString(req.Context)
	}
	return b.String()
}

// pageBreakContext instructs the model to keep the page markers of a unit
// that spans pageCount pages.
func pageBreakContext(pageCount int) string {
	return fmt.Sprintf("This is a document with %d pages. Pages are separated by %q markers. "+
		"IMPORTANT: You must preserve all %q markers in your translation exactly as they appear. "+
		"Translate the content between markers while keeping the markers intact.",
		pageCount, PageBreakMarker, PageBreakMarker)
}
