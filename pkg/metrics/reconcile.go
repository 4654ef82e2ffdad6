package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Reconcile outcome labels.
const (
	OutcomeInserted  = "inserted"
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeSkipped   = "skipped"
)

// ReconcileMetrics counts per-record reconciliation outcomes.
type ReconcileMetrics struct {
	records  *prometheus.CounterVec
	fallback *prometheus.CounterVec
	merged   *prometheus.GaugeVec
}

// NewReconcileMetrics registers the reconciliation metrics on reg.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogsync_reconcile_records_total",
		Help: "Reconciled records by entity and outcome.",
	}, []string{"entity", "outcome", "mode"})
	fallback := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogsync_reconcile_fallbacks_total",
		Help: "Fallback policy applications by entity and policy step.",
	}, []string{"entity", "policy"})
	merged := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalogsync_merge_items",
		Help: "Item counts of the latest merge by stage.",
	}, []string{"stage"})
	reg.MustRegister(records, fallback, merged)
	return &ReconcileMetrics{records: records, fallback: fallback, merged: merged}
}

// Record increments the outcome counter.
func (m *ReconcileMetrics) Record(entity, outcome string, dryRun bool) {
	if m == nil || m.records == nil {
		return
	}
	mode := "commit"
	if dryRun {
		mode = "dry_run"
	}
	m.records.WithLabelValues(normalizeLabel(entity), outcome, mode).Inc()
}

// Fallback increments the fallback counter for the named policy step.
func (m *ReconcileMetrics) Fallback(entity, policy string) {
	if m == nil || m.fallback == nil {
		return
	}
	m.fallback.WithLabelValues(normalizeLabel(entity), normalizeLabel(policy)).Inc()
}

// SetMergeStage publishes the item count observed at a merge stage.
func (m *ReconcileMetrics) SetMergeStage(stage string, count int) {
	if m == nil || m.merged == nil {
		return
	}
	m.merged.WithLabelValues(normalizeLabel(stage)).Set(float64(count))
}
