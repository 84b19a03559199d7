package main

import (
	"bufio"
	"flag"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"
)

// station is a sample station with its long-run mean temperature.
type station struct {
	name string
	mean float64
}

var sampleStations = []station{
	{"Abha", 18.0}, {"Abidjan", 26.0}, {"Abéché", 29.4}, {"Accra", 26.4},
	{"Addis Ababa", 16.0}, {"Adelaide", 17.3}, {"Anchorage", 2.8}, {"Athens", 19.2},
	{"Bangkok", 28.6}, {"Barcelona", 18.2}, {"Beijing", 12.9}, {"Bulawayo", 18.9},
	{"Cairo", 21.4}, {"Chișinău", 10.2}, {"Dikson", -11.1}, {"Dubai", 26.9},
	{"Hamburg", 9.7}, {"Hat Yai", 27.0}, {"Honolulu", 25.4}, {"Iqaluit", -9.3},
	{"İzmir", 17.9}, {"Lima", 19.1}, {"Lomé", 26.9}, {"Oslo", 5.7},
	{"Palembang", 27.3}, {"Petropavlovsk-Kamchatsky", 1.9}, {"Reykjavík", 4.3}, {"Ségou", 28.0},
	{"St. John's", 5.0}, {"Suwałki", 7.2}, {"Tromsø", 2.9}, {"Ürümqi", 7.4},
	{"Wrocław", 9.6}, {"Yakutsk", -8.8}, {"Zürich", 9.3},
}

var (
	outPath   = flag.String("out", "measurements.txt", "Output file")
	rows      = flag.Int("rows", 1_000_000, "Number of lines to write")
	stations  = flag.Int("stations", len(sampleStations), "Number of distinct stations (at most the built-in list)")
	malformed = flag.Float64("malformed", 0, "Fraction of lines to corrupt, in [0, 1)")
	seed      = flag.Int64("seed", 0, "RNG seed; 0 picks one from the clock")
	noFinalLF = flag.Bool("no-final-newline", false, "Omit the terminator of the last line")
)

func main() {
	flag.Parse()

	if *rows < 0 || *malformed < 0 || *malformed >= 1 {
		log.Fatalf("invalid flags: rows=%d malformed=%v", *rows, *malformed)
	}
	n := *stations
	if n <= 0 || n > len(sampleStations) {
		n = len(sampleStations)
	}
	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("Error creating %s: %v", *outPath, err)
	}
	w := bufio.NewWriterSize(f, 1<<20)

	log.Printf("Writing %d rows for %d stations to %s (seed %d)", *rows, n, *outPath, s)
	start := time.Now()

	rng := rand.New(rand.NewSource(s))
	var line []byte
	for i := 0; i < *rows; i++ {
		line = generateLine(line[:0], rng, sampleStations[:n], *malformed)
		if i < *rows-1 || !*noFinalLF {
			line = append(line, '\n')
		}
		if _, err := w.Write(line); err != nil {
			log.Fatalf("Error writing %s: %v", *outPath, err)
		}
	}

	if err := w.Flush(); err != nil {
		log.Fatalf("Error flushing %s: %v", *outPath, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Error closing %s: %v", *outPath, err)
	}
	log.Printf("Done in %s", time.Since(start))
}

// generateLine appends one "<station>;<value>" record to dst. With
// probability malformedRate the record is corrupted instead, either by
// dropping the separator or by replacing the value.
func generateLine(dst []byte, rng *rand.Rand, list []station, malformedRate float64) []byte {
	st := list[rng.Intn(len(list))]

	// Normal distribution around the station mean, clamped to [-99.9, 99.9]
	v := st.mean + rng.NormFloat64()*10
	v = math.Max(-99.9, math.Min(99.9, math.Round(v*10)/10))

	if malformedRate > 0 && rng.Float64() < malformedRate {
		if rng.Intn(2) == 0 {
			dst = append(dst, st.name...)
			dst = append(dst, ' ')
			return strconv.AppendFloat(dst, v, 'f', 1, 64)
		}
		dst = append(dst, st.name...)
		return append(dst, ";n/a"...)
	}

	dst = append(dst, st.name...)
	dst = append(dst, ';')
	return strconv.AppendFloat(dst, v, 'f', 1, 64)
}
