// Package scan tokenizes a measurement buffer without copying it.
//
// A buffer is split into nominal ranges by Partition. Each range is moved onto
// line boundaries by Align so that every line belongs to exactly one range:
// the range owning a line is the one whose nominal interval contains the
// line's first byte. Lines inside a range are produced by a LineScanner and
// split into a key and a numeric value by ParseRecord.
//
// Byte slices returned by this package alias the input buffer. Callers that
// need a key beyond the lifetime of the buffer must copy it.
package scan
