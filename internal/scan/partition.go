package scan

import (
	"bytes"
	"fmt"
)

// DefaultChunkSize is the nominal number of bytes per range.
const DefaultChunkSize = 50 * 1024 * 1024

// Range is a half-open byte interval [Start, End) of a buffer.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Empty reports whether the range contains no bytes.
func (r Range) Empty() bool {
	return r.End <= r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// Partition divides [0, length) into consecutive nominal ranges of chunkSize
// bytes. The last range holds the remainder. Nominal ranges ignore line
// boundaries; pass each one through Align before scanning.
func Partition(length, chunkSize int) []Range {
	if chunkSize < 1 {
		panic(fmt.Sprintf("scan: chunk size must be positive, got %d", chunkSize))
	}
	if length < 0 {
		panic(fmt.Sprintf("scan: negative buffer length %d", length))
	}
	if length == 0 {
		return nil
	}

	ranges := make([]Range, 0, (length-1)/chunkSize+1)
	for start := 0; start < length; {
		n := min(chunkSize, length-start)
		ranges = append(ranges, Range{Start: start, End: start + n})
		start += n
	}
	return ranges
}

// Align moves both ends of a nominal range forward to the next line start.
// The result covers exactly the lines whose first byte lies in r, including
// the tail of the last such line even when it extends past r.End. A line that
// began before r.Start is left to the preceding range.
func Align(buf []byte, r Range) Range {
	checkRange(buf, r)
	return Range{
		Start: lineStartAtOrAfter(buf, r.Start),
		End:   lineStartAtOrAfter(buf, r.End),
	}
}

// lineStartAtOrAfter returns the smallest line start >= off. Offset 0 and
// len(buf) both count as line starts.
func lineStartAtOrAfter(buf []byte, off int) int {
	if off == 0 || off >= len(buf) || buf[off-1] == '\n' {
		return off
	}
	i := bytes.IndexByte(buf[off:], '\n')
	if i < 0 {
		return len(buf)
	}
	return off + i + 1
}

func checkRange(buf []byte, r Range) {
	if r.Start < 0 || r.End > len(buf) || r.Start > r.End {
		panic(fmt.Sprintf("scan: range %v outside buffer of length %d", r, len(buf)))
	}
}
