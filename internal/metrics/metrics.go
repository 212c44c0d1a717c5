// Package metrics records generation counters in Prometheus form.
//
// The generator is a batch tool, so metrics are not scraped: at the end of a
// run they are written to a node-exporter textfile (metrics_file setting).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry owns the collectors of one run.
type Registry struct {
	reg *prometheus.Registry

	rowsProcessed  *prometheus.CounterVec
	linesEmitted   *prometheus.CounterVec
	rulesRejected  *prometheus.CounterVec
	lookupMisses   *prometheus.CounterVec
	filesWritten   *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	converterState *prometheus.GaugeVec
}

// NewRegistry creates and registers all collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		rowsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagconverter_rows_processed_total",
				Help: "Rows accepted by an output type",
			},
			[]string{"converter", "type"},
		),
		linesEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagconverter_lines_emitted_total",
				Help: "Output lines generated",
			},
			[]string{"converter", "type"},
		),
		rulesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagconverter_rules_rejected_total",
				Help: "Template lines skipped because their rule was false",
			},
			[]string{"converter", "type"},
		),
		lookupMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagconverter_lookup_misses_total",
				Help: "Cross-sheet lookups that found no row",
			},
			[]string{"converter", "type", "token"},
		),
		filesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagconverter_files_written_total",
				Help: "Output files written",
			},
			[]string{"converter"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tagconverter_run_duration_seconds",
				Help:    "Duration of one converter run",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"converter"},
		),
		converterState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tagconverter_converter_success",
				Help: "1 if the last run of the converter succeeded, 0 otherwise",
			},
			[]string{"converter"},
		),
	}

	r.reg.MustRegister(
		r.rowsProcessed,
		r.linesEmitted,
		r.rulesRejected,
		r.lookupMisses,
		r.filesWritten,
		r.runDuration,
		r.converterState,
	)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile writes all metrics in text exposition format to path.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}

// Converter returns the recorder for one converter.
func (r *Registry) Converter(name string) *ConverterMetrics {
	return &ConverterMetrics{r: r, name: name}
}

// ConverterMetrics records the events of one converter. It implements
// generator.Observer.
type ConverterMetrics struct {
	r    *Registry
	name string
}

func (m *ConverterMetrics) RowProcessed(outputType string) {
	m.r.rowsProcessed.WithLabelValues(m.name, outputType).Inc()
}

func (m *ConverterMetrics) LineEmitted(outputType string) {
	m.r.linesEmitted.WithLabelValues(m.name, outputType).Inc()
}

func (m *ConverterMetrics) RuleRejected(outputType string) {
	m.r.rulesRejected.WithLabelValues(m.name, outputType).Inc()
}

func (m *ConverterMetrics) LookupMiss(outputType, token string) {
	m.r.lookupMisses.WithLabelValues(m.name, outputType, token).Inc()
}

// FileWritten counts one output file.
func (m *ConverterMetrics) FileWritten() {
	m.r.filesWritten.WithLabelValues(m.name).Inc()
}

// RunFinished records the run duration and outcome.
func (m *ConverterMetrics) RunFinished(d time.Duration, success bool) {
	m.r.runDuration.WithLabelValues(m.name).Observe(d.Seconds())
	state := 0.0
	if success {
		state = 1
	}
	m.r.converterState.WithLabelValues(m.name).Set(state)
}
