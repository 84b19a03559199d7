package scan

import (
	"bytes"
	"math"
	"strconv"
)

// Separator splits a line into key and value.
const Separator = ';'

// maxExactDigits is the most significant digits that always fit in a
// float64 mantissa (10^15 < 2^53).
const maxExactDigits = 15

// exactPow10 holds the powers of ten that are exactly representable.
var exactPow10 = [...]float64{
	1e0, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9, 1e10,
	1e11, 1e12, 1e13, 1e14, 1e15, 1e16, 1e17, 1e18, 1e19, 1e20, 1e21, 1e22,
}

// ParseRecord splits line at the first separator and parses the value.
// The returned key aliases line. It fails with ErrNoSeparator or
// ErrInvalidValue; in both cases the line should be skipped.
func ParseRecord(line []byte) (key []byte, value float64, err error) {
	sep := bytes.IndexByte(line, Separator)
	if sep < 0 {
		return nil, 0, ErrNoSeparator
	}
	value, err = ParseValue(line[sep+1:])
	if err != nil {
		return nil, 0, err
	}
	return line[:sep], value, nil
}

// ParseValue parses a plain decimal number: an optional sign, digits with at
// most one decimal point, and an optional exponent. A single trailing '\r' is
// ignored. Whitespace, thousands separators, hex, and inf/nan are rejected,
// as are values that overflow float64.
func ParseValue(b []byte) (float64, error) {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}

	i, n := 0, len(b)
	neg := false
	if i < n && (b[i] == '-' || b[i] == '+') {
		neg = b[i] == '-'
		i++
	}

	var mant uint64
	digits, sig, exp10 := 0, 0, 0
	seenDot, inexact := false, false
	for ; i < n; i++ {
		c := b[i]
		if c == '.' {
			if seenDot {
				return 0, ErrInvalidValue
			}
			seenDot = true
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		digits++
		if mant == 0 && c == '0' {
			if seenDot {
				exp10--
			}
			continue
		}
		if sig == maxExactDigits {
			inexact = true
			continue
		}
		mant = mant*10 + uint64(c-'0')
		sig++
		if seenDot {
			exp10--
		}
	}
	if digits == 0 {
		return 0, ErrInvalidValue
	}

	if i < n && (b[i] == 'e' || b[i] == 'E') {
		i++
		expNeg := false
		if i < n && (b[i] == '-' || b[i] == '+') {
			expNeg = b[i] == '-'
			i++
		}
		e, expDigits := 0, 0
		for ; i < n && b[i] >= '0' && b[i] <= '9'; i++ {
			if e < 10000 {
				e = e*10 + int(b[i]-'0')
			}
			expDigits++
		}
		if expDigits == 0 {
			return 0, ErrInvalidValue
		}
		if expNeg {
			e = -e
		}
		exp10 += e
	}
	if i != n {
		return 0, ErrInvalidValue
	}

	if mant == 0 {
		if neg {
			return math.Copysign(0, -1), nil
		}
		return 0, nil
	}

	if !inexact && exp10 >= -22 && exp10 <= 22 {
		f := float64(mant)
		if exp10 < 0 {
			f /= exactPow10[-exp10]
		} else {
			f *= exactPow10[exp10]
		}
		if neg {
			f = -f
		}
		return f, nil
	}

	// Syntax is already validated; strconv handles rounding of long mantissas
	// and large exponents, and reports overflow.
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, ErrInvalidValue
	}
	return f, nil
}
