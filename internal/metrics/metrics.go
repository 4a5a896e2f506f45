package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nikmy/txprop/pkg/txn"
)

// Metrics exports coordinator events. It implements txn.Observer.
type Metrics struct {
	// begin calls, kind: physical, participating
	BeginsTotal *prometheus.CounterVec

	// physical completions, outcome: commit, rollback; status: ok, failed
	CompletionsTotal *prometheus.CounterVec

	// physical rollbacks by reason
	RollbacksTotal *prometheus.CounterVec

	RollbackOnlyMarksTotal prometheus.Counter

	// currently open physical transactions
	ActiveTransactions prometheus.Gauge
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BeginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txn_begins_total",
				Help: "Number of logical transactions begun",
			},
			[]string{"kind"},
		),
		CompletionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txn_completions_total",
				Help: "Number of physical transaction completions",
			},
			[]string{"outcome", "status"},
		),
		RollbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txn_rollbacks_total",
				Help: "Number of physical rollbacks by reason",
			},
			[]string{"reason"},
		),
		RollbackOnlyMarksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "txn_rollback_only_marks_total",
				Help: "Number of transactions marked rollback-only by a participant",
			},
		),
		ActiveTransactions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "txn_active",
				Help: "Number of open physical transactions",
			},
		),
	}

	reg.MustRegister(
		m.BeginsTotal,
		m.CompletionsTotal,
		m.RollbacksTotal,
		m.RollbackOnlyMarksTotal,
		m.ActiveTransactions,
	)

	return m
}

var _ txn.Observer = (*Metrics)(nil)

func (m *Metrics) OnBegin(_ string, newTx bool) {
	if newTx {
		m.BeginsTotal.WithLabelValues("physical").Inc()
		m.ActiveTransactions.Inc()
		return
	}
	m.BeginsTotal.WithLabelValues("participating").Inc()
}

func (m *Metrics) OnCommit(_ string, err error) {
	m.ActiveTransactions.Dec()
	m.CompletionsTotal.WithLabelValues("commit", status(err)).Inc()
}

func (m *Metrics) OnRollback(_ string, reason txn.RollbackReason, err error) {
	m.ActiveTransactions.Dec()
	m.CompletionsTotal.WithLabelValues("rollback", status(err)).Inc()
	m.RollbacksTotal.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) OnMarkRollbackOnly(string) {
	m.RollbackOnlyMarksTotal.Inc()
}

func status(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
