// Package metrics exposes Prometheus counters for admission and sync.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "festreg"

// Recorder is what the admission and sync components report to.
type Recorder interface {
	AdmissionOutcome(outcome string)
	SyncAttempt()
	SyncResult(success bool)
	EmailResult(success bool)
}

type Prometheus struct {
	registry   *prometheus.Registry
	admissions *prometheus.CounterVec
	syncTries  prometheus.Counter
	syncs      *prometheus.CounterVec
	emails     *prometheus.CounterVec
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_decisions_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		syncTries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_append_attempts_total",
			Help:      "Spreadsheet append attempts, retries included.",
		}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_sync_results_total",
			Help:      "Final spreadsheet sync results.",
		}, []string{"result"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "welcome_emails_total",
			Help:      "Welcome email results.",
		}, []string{"result"}),
	}
	p.registry.MustRegister(
		p.admissions, p.syncTries, p.syncs, p.emails,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) AdmissionOutcome(outcome string) {
	p.admissions.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) SyncAttempt() { p.syncTries.Inc() }

func (p *Prometheus) SyncResult(success bool) {
	p.syncs.WithLabelValues(result(success)).Inc()
}

func (p *Prometheus) EmailResult(success bool) {
	p.emails.WithLabelValues(result(success)).Inc()
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

type noop struct{}

// NewNoop returns a Recorder that discards everything.
func NewNoop() Recorder { return noop{} }

func (noop) AdmissionOutcome(string) {}
func (noop) SyncAttempt()            {}
func (noop) SyncResult(bool)         {}
func (noop) EmailResult(bool)        {}
