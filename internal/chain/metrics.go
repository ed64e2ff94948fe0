package chain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	feedReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auctionwatch_node_feed_reconnects_total",
			Help: "Total number of block feed reconnection attempts",
		},
	)
)

func feedReconnectsInc() {
	feedReconnects.Inc()
}
