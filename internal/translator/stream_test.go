package translator

import (
	"reflect"
	"testing"
)

func TestJoinAndSplitSegments(t *testing.T) {
	tests := [][]string{
		{"only"},
		{"a", "b"},
		{"", "middle", ""},
		{"line one\nline two", "第二页"},
	}
	for _, pages := range tests {
		if got := SplitSegments(JoinPages(pages)); !reflect.DeepEqual(got, pages) {
			t.Errorf("SplitSegments(JoinPages(%q)) = %q", pages, got)
		}
	}
}

func TestSplitTranslated(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"no marker", "  text \n", []string{"text"}},
		{"canonical separator", "一" + PageSeparator + "二", []string{"一", "二"}},
		{"tight markers", "a---PAGE_BREAK---b", []string{"a", "b"}},
		{"single newlines", "a\n---PAGE_BREAK---\nb\n", []string{"a", "b"}},
		{"trailing marker", "a" + PageSeparator, []string{"a", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitTranslated(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitTranslated(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextLenCountsCharacters(t *testing.T) {
	if got := textLen("中文"); got != 2 {
		t.Errorf("textLen(中文) = %d, want 2", got)
	}
	if got := textLen(PageSeparator); got != 20 {
		t.Errorf("textLen(PageSeparator) = %d, want 20", got)
	}
}

func TestReconcile(t *testing.T) {
	if got := reconcile([]string{"a"}, 3); !reflect.DeepEqual(got, []string{"a", "", ""}) {
		t.Errorf("pad: %q", got)
	}
	if got := reconcile([]string{"a", "b", "c"}, 2); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("truncate: %q", got)
	}
	if got := reconcile(nil, 0); len(got) != 0 {
		t.Errorf("empty: %q", got)
	}
}
