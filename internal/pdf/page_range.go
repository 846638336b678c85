package pdf

import (
	"fmt"
	"strconv"
	"strings"
)

// PageRange is a 0-based half-open interval [Start, End). A zero End means
// "to the last page".
type PageRange struct {
	Start int
	End   int
}

// ParsePageRange parses "A-B" or "N" (1-based, inclusive). An empty string
// selects every page.
func ParsePageRange(s string) (PageRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PageRange{}, nil
	}

	first, last, isRange := strings.Cut(s, "-")
	start, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || start < 1 {
		return PageRange{}, NewPDFErrorWithDetails(ErrPageRange, "页码范围格式错误", s, err)
	}
	end := start
	if isRange {
		end, err = strconv.Atoi(strings.TrimSpace(last))
		if err != nil || end < start {
			return PageRange{}, NewPDFErrorWithDetails(ErrPageRange, "页码范围格式错误", s, err)
		}
	}
	return PageRange{Start: start - 1, End: end}, nil
}

// Clamp restricts the range to a document with pageCount pages.
func (r PageRange) Clamp(pageCount int) (PageRange, error) {
	end := r.End
	if end == 0 || end > pageCount {
		end = pageCount
	}
	if r.Start >= pageCount || r.Start >= end {
		return PageRange{}, NewPDFErrorWithDetails(ErrPageRange, "页码超出文档范围",
			fmt.Sprintf("start page %d, document has %d pages", r.Start+1, pageCount), nil)
	}
	return PageRange{Start: r.Start, End: end}, nil
}

// Len returns the number of pages in a clamped range.
func (r PageRange) Len() int {
	return r.End - r.Start
}

func (r PageRange) String() string {
	if r.End == 0 {
		return fmt.Sprintf("%d-", r.Start+1)
	}
	return fmt.Sprintf("%d-%d", r.Start+1, r.End)
}
