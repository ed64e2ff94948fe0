package classifier

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	blocksProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auctionwatch_blocks_processed_total",
			Help: "Total number of connected blocks processed",
		},
	)

	lastIndexedHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auctionwatch_last_indexed_height",
			Help: "Height of the last fully indexed block",
		},
	)

	blockProcessingTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auctionwatch_block_processing_duration_seconds",
			Help:    "Time taken to fully process one connected block",
			Buckets: prometheus.DefBuckets,
		},
	)

	outputsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auctionwatch_outputs_classified_total",
			Help: "Total number of outputs classified, by covenant kind",
		},
		[]string{"covenant"},
	)

	integrityViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auctionwatch_integrity_violations_total",
			Help: "Total number of integrity anomalies observed",
		},
		[]string{"kind"},
	)

	bidsBurned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auctionwatch_bids_burned_total",
			Help: "Total number of burned bids detected",
		},
	)

	reorgRollbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auctionwatch_reorg_rollbacks_total",
			Help: "Total number of blocks rolled back after a reorganization",
		},
	)
)

func blockProcessed(height uint64, duration time.Duration) {
	blocksProcessed.Inc()
	lastIndexedHeight.Set(float64(height))
	blockProcessingTime.Observe(duration.Seconds())
}

func outputClassified(covenant string) {
	outputsClassified.WithLabelValues(covenant).Inc()
}

func integrityViolationInc(kind string) {
	integrityViolations.WithLabelValues(kind).Inc()
}

func bidBurnedInc() {
	bidsBurned.Inc()
}

func reorgRolledBack() {
	reorgRollbacks.Inc()
}
