package scan

import (
	"slices"
	"testing"
)

func lineStrings(buf []byte, spans []Span) []string {
	out := make([]string, 0, len(spans))
	for _, sp := range spans {
		out = append(out, string(sp.Bytes(buf)))
	}
	return out
}

func TestLineScanner(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"single terminated", "a;1\n", []string{"a;1"}},
		{"unterminated final line", "a;1\nb;2", []string{"a;1", "b;2"}},
		{"blank lines skipped", "\n\na;1\n\n\nb;2\n\n", []string{"a;1", "b;2"}},
		{"only terminators", "\n\n\n", []string{}},
		{"crlf kept in line", "a;1\r\n", []string{"a;1\r"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := []byte(tt.in)
			got := lineStrings(buf, collect(buf, Range{0, len(buf)}))
			if !slices.Equal(got, tt.want) {
				t.Fatalf("lines = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLineScannerOverrunsRangeEnd(t *testing.T) {
	buf := []byte("abc;1\ndef;2\nghi;3\n")
	// The range ends inside "def;2": that line started inside, so it is read whole.
	got := lineStrings(buf, collect(buf, Range{0, 8}))
	want := []string{"abc;1", "def;2"}
	if !slices.Equal(got, want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func TestLineScannerExhausted(t *testing.T) {
	buf := []byte("a;1")
	sc := NewLineScanner(buf, Range{0, len(buf)})
	if _, ok := sc.Next(); !ok {
		t.Fatal("expected one line")
	}
	for i := 0; i < 3; i++ {
		if sp, ok := sc.Next(); ok {
			t.Fatalf("unexpected extra line %v", sp)
		}
	}
}
