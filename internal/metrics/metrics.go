// Package metrics records counters for one plcbridge invocation. The CLI is
// not a long-running process, so instead of serving /metrics the registry is
// written in Prometheus text format for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/HerbHall/plcbridge/internal/inventory"
)

// Registry holds the metrics of a run.
type Registry struct {
	RunsTotal          *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
	DevicesTotal       prometheus.Gauge
	FilesParsedTotal   prometheus.Counter
	EntriesTotal       prometheus.Counter
	MembersSkipped     prometheus.Counter
	DevicesSkipped     prometheus.Counter
	DocumentsWritten   *prometheus.CounterVec
	LastSuccessSeconds prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)

	r.RunsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plcbridge_runs_total",
			Help: "Generation runs by command and result",
		},
		[]string{"command", "result"},
	)
	r.StageDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plcbridge_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
		},
		[]string{"stage"},
	)
	r.DevicesTotal = f.NewGauge(prometheus.GaugeOpts{
		Name: "plcbridge_devices",
		Help: "Devices in the canonical model of the last run",
	})
	r.FilesParsedTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "plcbridge_block_files_parsed_total",
		Help: "Data-block export files parsed",
	})
	r.EntriesTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "plcbridge_tag_entries_total",
		Help: "Tag entries read from data-block exports",
	})
	r.MembersSkipped = f.NewCounter(prometheus.CounterOpts{
		Name: "plcbridge_members_skipped_total",
		Help: "Data-block members skipped for lack of attributes",
	})
	r.DevicesSkipped = f.NewCounter(prometheus.CounterOpts{
		Name: "plcbridge_devices_skipped_total",
		Help: "Devices left out of the SFC configuration for lack of a network address",
	})
	r.DocumentsWritten = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plcbridge_documents_written_total",
			Help: "Generated documents by target",
		},
		[]string{"target"},
	)
	r.LastSuccessSeconds = f.NewGauge(prometheus.GaugeOpts{
		Name: "plcbridge_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run",
	})
	return r
}

// Gatherer returns the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveStage records how long a stage took since start.
func (r *Registry) ObserveStage(stage string, start time.Time) {
	r.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordInventory records the statistics of a canonical model build.
func (r *Registry) RecordInventory(s inventory.Stats) {
	r.DevicesTotal.Set(float64(s.Devices))
	r.FilesParsedTotal.Add(float64(s.Files))
	r.EntriesTotal.Add(float64(s.Entries))
	r.MembersSkipped.Add(float64(s.Skipped))
}

// RecordRun counts a finished run. A nil err counts as success.
func (r *Registry) RecordRun(command string, err error, at time.Time) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.RunsTotal.WithLabelValues(command, result).Inc()
	if err == nil {
		r.LastSuccessSeconds.Set(float64(at.Unix()))
	}
}

// WriteTextfile writes the registry to path in the Prometheus text format.
// The file is replaced atomically.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
