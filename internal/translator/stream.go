package translator

import (
	"strings"
	"unicode/utf8"
)

const (
	// PageBreakMarker separates pages inside a translation unit.
	PageBreakMarker = "---PAGE_BREAK---"
	// PageSeparator is the marker with the blank lines used when joining pages.
	PageSeparator = "\n\n" + PageBreakMarker + "\n\n"
)

// JoinPages concatenates page texts into one logical stream.
func JoinPages(pages []string) string {
	return strings.Join(pages, PageSeparator)
}

// SplitSegments splits a logical stream back into its page segments.
func SplitSegments(stream string) []string {
	return strings.Split(stream, PageSeparator)
}

// SplitTranslated splits backend output on the bare marker and trims each
// piece, since models rarely keep the surrounding blank lines intact.
func SplitTranslated(output string) []string {
	parts := strings.Split(output, PageBreakMarker)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// textLen measures text in characters, not bytes, so the budget means the
// same thing for CJK and Latin text.
func textLen(s string) int {
	return utf8.RuneCountInString(s)
}

func allBlank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

// reconcile forces the translated segments to exactly n entries: missing
// trailing pages become empty, extra trailing segments are dropped.
func reconcile(segments []string, n int) []string {
	out := make([]string, n)
	copy(out, segments)
	return out
}
