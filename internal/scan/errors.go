package scan

import "errors"

// Malformed line errors. Both are expected in normal input and only tell the
// caller why a line was skipped.
var (
	ErrNoSeparator  = errors.New("scan: line has no ';' separator")
	ErrInvalidValue = errors.New("scan: value is not a decimal number")
)
