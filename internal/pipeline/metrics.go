package pipeline

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Malformed line reasons used as the "reason" label.
const (
	reasonNoSeparator  = "no_separator"
	reasonInvalidValue = "invalid_value"
)

// Metrics holds the run's Prometheus collectors on a private registry, so
// several pipelines (or tests) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	rangesScanned     prometheus.Counter
	bytesScanned      prometheus.Counter
	linesScanned      prometheus.Counter
	recordsAggregated prometheus.Counter
	malformedLines    *prometheus.CounterVec
	resultsPublished  prometheus.Counter
	stations          prometheus.Gauge
	workers           prometheus.Gauge
	scanDuration      prometheus.Gauge
	runDuration       prometheus.Gauge
}

// NewMetrics creates and registers the run metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		rangesScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "onebrc_ranges_scanned_total",
			Help: "Number of buffer ranges scanned by workers.",
		}),
		bytesScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "onebrc_bytes_scanned_total",
			Help: "Bytes covered by the line-aligned ranges.",
		}),
		linesScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "onebrc_lines_scanned_total",
			Help: "Non-empty lines seen by the scanner.",
		}),
		recordsAggregated: factory.NewCounter(prometheus.CounterOpts{
			Name: "onebrc_records_aggregated_total",
			Help: "Lines successfully folded into the aggregation table.",
		}),
		malformedLines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onebrc_malformed_lines_total",
				Help: "Lines skipped because they could not be parsed.",
			},
			[]string{"reason"}, // Label: no_separator, invalid_value
		),
		resultsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "onebrc_results_published_total",
			Help: "Station results written to Kafka.",
		}),
		stations: factory.NewGauge(prometheus.GaugeOpts{
			Name: "onebrc_stations",
			Help: "Distinct stations in the final table.",
		}),
		workers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "onebrc_workers",
			Help: "Worker goroutines used by the scan.",
		}),
		scanDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "onebrc_scan_duration_seconds",
			Help: "Wall time of the parallel scan.",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "onebrc_run_duration_seconds",
			Help: "Wall time from loading the input to finishing the report.",
		}),
	}
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %w", ErrMetricsExport, err)
	}
	return nil
}

// observeRange folds one range's counters in. Called once per range so the
// per-line path never touches a collector.
func (m *Metrics) observeRange(c rangeCounts) {
	m.rangesScanned.Inc()
	m.bytesScanned.Add(float64(c.bytes))
	m.linesScanned.Add(float64(c.lines))
	m.recordsAggregated.Add(float64(c.records))
	if c.noSeparator > 0 {
		m.malformedLines.WithLabelValues(reasonNoSeparator).Add(float64(c.noSeparator))
	}
	if c.invalidValue > 0 {
		m.malformedLines.WithLabelValues(reasonInvalidValue).Add(float64(c.invalidValue))
	}
}
