// Package metrics exposes rule execution counters in Prometheus format.
//
// archivist is a batch tool, so nothing is served over HTTP: after each run
// the registry is written to a textfile for node_exporter's textfile
// collector to pick up.
//
// Metrics:
//   - archivist_files_matched_total{rule}: candidate files per rule
//   - archivist_files_passed_total{rule}: files that passed every test
//   - archivist_test_results_total{rule,test,result}: test evaluations
//   - archivist_actions_total{rule,action,outcome}: action outcomes
//   - archivist_last_run_timestamp_seconds: end of the last completed run
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "archivist"

// Collector implements engine.Metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	filesMatched *prometheus.CounterVec
	filesPassed  *prometheus.CounterVec
	testResults  *prometheus.CounterVec
	actions      *prometheus.CounterVec
	lastRun      prometheus.Gauge
}

// NewCollector creates a collector and registers its metrics. If registry
// is nil a fresh one is used.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	c := &Collector{
		registry: registry,
		filesMatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_matched_total",
				Help:      "Candidate files produced by pattern expansion",
			},
			[]string{"rule"},
		),
		filesPassed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_passed_total",
				Help:      "Files that passed every test of a rule",
			},
			[]string{"rule"},
		),
		testResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "test_results_total",
				Help:      "Test evaluations by result",
			},
			[]string{"rule", "test", "result"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Action executions by outcome (continue, unchanged, collision, abort)",
			},
			[]string{"rule", "action", "outcome"},
		),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last run finished",
		}),
	}
	registry.MustRegister(c.filesMatched, c.filesPassed, c.testResults, c.actions, c.lastRun)
	return c
}

// Registry returns the registry the collector writes to.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// FileMatched counts one candidate file.
func (c *Collector) FileMatched(rule string) {
	c.filesMatched.WithLabelValues(rule).Inc()
}

// FilePassed counts one file that passed the rule's tests.
func (c *Collector) FilePassed(rule string) {
	c.filesPassed.WithLabelValues(rule).Inc()
}

// TestEvaluated counts one test result.
func (c *Collector) TestEvaluated(rule, test string, passed bool) {
	c.testResults.WithLabelValues(rule, test, strconv.FormatBool(passed)).Inc()
}

// ActionFinished counts one action outcome.
func (c *Collector) ActionFinished(rule, action, outcome string) {
	c.actions.WithLabelValues(rule, action, outcome).Inc()
}

// RunFinished records the end of a run.
func (c *Collector) RunFinished(at time.Time) {
	c.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile atomically writes every metric to path in the text
// exposition format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
