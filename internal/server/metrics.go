package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agenthands/lineage/internal/core/validate"
)

var (
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lineage",
		Name:      "relationship_validations_total",
		Help:      "Relationship validations by outcome.",
	}, []string{"outcome"})

	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lineage",
		Name:      "mutations_total",
		Help:      "Store mutations by operation.",
	}, []string{"op"})

	importsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lineage",
		Name:      "imports_total",
		Help:      "Snapshot imports by result.",
	}, []string{"result"})

	persistTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lineage",
		Name:      "persist_operations_total",
		Help:      "Save and load calls by result.",
	}, []string{"op", "result"})

	layoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lineage",
		Name:      "layout_duration_seconds",
		Help:      "Time spent computing a layout.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
)

func outcomeLabel(res validate.Result) string {
	switch res.Reason {
	case "":
		return "accepted"
	case validate.ReasonSelf:
		return "self"
	case validate.ReasonDuplicate:
		return "duplicate"
	case validate.ReasonCycle:
		return "cycle"
	case validate.ReasonUnknownPerson:
		return "unknown_person"
	}
	return "other"
}
