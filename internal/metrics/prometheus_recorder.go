package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitenav"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	loadDuration prom.Histogram
	loadOutcome  *prom.CounterVec
	reloads      *prom.CounterVec
	navLeaves    prom.Gauge
	navNodes     prom.Gauge
	checkIssues  *prom.CounterVec
	lastReload   prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		loadDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "config_load_duration_seconds",
			Help:      "Duration of configuration loads including page resolution",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		loadOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "config_loads_total",
			Help:      "Configuration loads by outcome",
		}, []string{"outcome"}),
		reloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Reloads triggered by the watcher, by trigger",
		}, []string{"trigger"}),
		navLeaves: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "nav_leaves",
			Help:      "Number of leaf entries in the current navigation",
		}),
		navNodes: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "nav_nodes",
			Help:      "Number of entries in the current navigation",
		}),
		checkIssues: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "check_issues_total",
			Help:      "Navigation check issues by rule",
		}, []string{"rule"}),
		lastReload: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_reload_timestamp_seconds",
			Help:      "Unix time of the last successful reload",
		}),
	}
	reg.MustRegister(pr.loadDuration, pr.loadOutcome, pr.reloads, pr.navLeaves, pr.navNodes, pr.checkIssues, pr.lastReload)
	return pr
}

func (p *PrometheusRecorder) ObserveLoadDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.loadDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncLoadOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.loadOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncReload(trigger string) {
	if p == nil {
		return
	}
	p.reloads.WithLabelValues(trigger).Inc()
}

func (p *PrometheusRecorder) SetNavSize(leaves, nodes int) {
	if p == nil {
		return
	}
	p.navLeaves.Set(float64(leaves))
	p.navNodes.Set(float64(nodes))
}

func (p *PrometheusRecorder) IncCheckIssues(rule string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.checkIssues.WithLabelValues(rule).Add(float64(n))
}

func (p *PrometheusRecorder) SetLastReload(t time.Time) {
	if p == nil {
		return
	}
	p.lastReload.Set(float64(t.Unix()))
}
