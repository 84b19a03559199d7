package main

import (
	"math/rand"
	"testing"

	"github.com/sanspareilsmyn/onebrc/internal/scan"
)

func TestGenerateLineParses(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var line []byte
	for i := 0; i < 10000; i++ {
		line = generateLine(line[:0], rng, sampleStations, 0)
		_, v, err := scan.ParseRecord(line)
		if err != nil {
			t.Fatalf("line %q: %v", line, err)
		}
		if v < -99.9 || v > 99.9 {
			t.Fatalf("line %q: value %v out of range", line, v)
		}
	}
}

func TestGenerateLineMalformed(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	var line []byte
	bad := 0
	const total = 2000
	for i := 0; i < total; i++ {
		line = generateLine(line[:0], rng, sampleStations[:3], 0.5)
		if _, _, err := scan.ParseRecord(line); err != nil {
			bad++
		}
	}
	if bad < total/4 || bad > total*3/4 {
		t.Fatalf("malformed lines = %d of %d, want about half", bad, total)
	}
}
