package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fairsweep_jobs_processed_total",
		Help: "Evaluation jobs processed, by outcome.",
	}, []string{"outcome"})

	ModelsEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fairsweep_models_evaluated_total",
		Help: "Swept models evaluated across all jobs.",
	})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fairsweep_sweep_duration_seconds",
		Help:    "Wall time of one job's sweep-evaluate-filter pipeline.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	FrontierSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fairsweep_frontier_size",
		Help:    "Pareto frontier size per completed job.",
		Buckets: prometheus.LinearBuckets(1, 5, 15),
	})
)
