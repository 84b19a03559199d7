package scan

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// randomInput builds a buffer of short lines, with occasional empty lines
// and malformed records. The final terminator is dropped half the time.
func randomInput(rng *rand.Rand, lines int) []byte {
	keys := []string{"Abha", "Zürich", "Oslo", "Hat Yai", "Ségou", "X"}
	var sb strings.Builder
	for i := 0; i < lines; i++ {
		switch rng.IntN(10) {
		case 0:
			// empty line
		case 1:
			sb.WriteString("garbage without separator")
		default:
			sb.WriteString(keys[rng.IntN(len(keys))])
			sb.WriteByte(';')
			sb.WriteString(strings.Repeat("9", rng.IntN(3)+1))
			sb.WriteString(".5")
		}
		sb.WriteByte('\n')
	}
	s := sb.String()
	if rng.IntN(2) == 0 {
		s = strings.TrimSuffix(s, "\n")
	}
	return []byte(s)
}

func collect(buf []byte, r Range) []Span {
	var spans []Span
	sc := NewLineScanner(buf, r)
	for {
		sp, ok := sc.Next()
		if !ok {
			return spans
		}
		spans = append(spans, sp)
	}
}
