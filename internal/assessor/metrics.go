package assessor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scoringsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitscore_scorings_total",
		Help: "Submissions scored, by response status.",
	}, []string{"status"})

	judgeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitscore_judge_failures_total",
		Help: "Judge calls that produced no usable evaluation, by failure kind.",
	}, []string{"kind"})

	judgeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fitscore_judge_duration_seconds",
		Help:    "Wall time of judge evaluations.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	persistFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitscore_persist_failures_total",
		Help: "Write-backs that failed after a result was computed.",
	}, []string{"kind"})

	auditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitscore_adoption_audits_total",
		Help: "Adoption audits recorded, by overall band.",
	}, []string{"band"})
)
