package pdf

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Layout selects how original and translated text are arranged.
type Layout int

const (
	// LayoutDualColumn places original and translation side by side.
	LayoutDualColumn Layout = iota
	// LayoutInterleaved places each original paragraph above its translation.
	LayoutInterleaved
	// LayoutTranslationOnly emits the translation alone.
	LayoutTranslationOnly
)

// String returns the CLI name of the layout.
func (l Layout) String() string {
	switch l {
	case LayoutDualColumn:
		return "dual"
	case LayoutInterleaved:
		return "interleaved"
	case LayoutTranslationOnly:
		return "translation"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout converts a CLI layout name.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dual", "":
		return LayoutDualColumn, nil
	case "interleaved":
		return LayoutInterleaved, nil
	case "translation", "translation-only":
		return LayoutTranslationOnly, nil
	default:
		return 0, fmt.Errorf("unknown layout %q (expected dual, interleaved or translation)", s)
	}
}

// BilingualContent is one page's original and translated text.
type BilingualContent struct {
	PageIndex  int // 0-based
	Original   string
	Translated string
}

// Renderer writes bilingual content to an output document.
type Renderer interface {
	Render(contents []BilingualContent, layout Layout, outputPath, title string) error
}

// RenderOptions configure renderer construction.
type RenderOptions struct {
	FontPath string // TTF used by the PDF renderer
}

// IsWordOutput reports whether the output path asks for a Word document.
func IsWordOutput(outputPath string) bool {
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".docx", ".doc":
		return true
	}
	return false
}

// RendererFor picks the Word renderer for .docx/.doc outputs and the PDF
// renderer otherwise.
func RendererFor(outputPath string, opts RenderOptions) Renderer {
	if IsWordOutput(outputPath) {
		return NewDocxRenderer()
	}
	return NewPDFRenderer(opts.FontPath)
}

// paragraphs splits page text into non-empty paragraphs on blank lines,
// keeping single newlines inside a paragraph.
func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
