package scan

import "bytes"

// Span locates one line inside a buffer, excluding its terminator.
type Span struct {
	Start int
	End   int
}

// Bytes returns the span's bytes. The slice aliases buf.
func (s Span) Bytes(buf []byte) []byte {
	return buf[s.Start:s.End]
}

// LineScanner yields the non-empty lines that start inside a range.
// It is single use and not safe for concurrent use.
type LineScanner struct {
	buf []byte
	pos int
	end int
}

// NewLineScanner returns a scanner over the lines starting in r.
// r.Start is expected to be a line start; see Align.
func NewLineScanner(buf []byte, r Range) *LineScanner {
	checkRange(buf, r)
	return &LineScanner{buf: buf, pos: r.Start, end: r.End}
}

// Next returns the next line. A line ends at '\n' or at the end of the
// buffer, so the last line may run past the range end. Empty lines are
// skipped. Next returns false once no line starts before the range end.
func (s *LineScanner) Next() (Span, bool) {
	for s.pos < s.end {
		start := s.pos
		i := bytes.IndexByte(s.buf[start:], '\n')
		if i < 0 {
			// Unterminated final line; start < end <= len(buf) so it is non-empty.
			s.pos = len(s.buf)
			return Span{Start: start, End: len(s.buf)}, true
		}
		s.pos = start + i + 1
		if i > 0 {
			return Span{Start: start, End: start + i}, true
		}
	}
	return Span{}, false
}
