package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchCommits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auctionwatch_store_batch_commits_total",
			Help: "Total number of batch commits attempted",
		},
	)

	batchOps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auctionwatch_store_batch_operations_total",
			Help: "Total number of puts and deletes committed in batches",
		},
	)

	commitErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auctionwatch_store_commit_errors_total",
			Help: "Total number of failed batch commits",
		},
	)
)

func commitsInc(ops int) {
	batchCommits.Inc()
	batchOps.Add(float64(ops))
}

func commitErrorsInc() {
	commitErrors.Inc()
}
