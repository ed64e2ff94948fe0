package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	published = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auctionwatch_events_published_total",
			Help: "Total number of domain events published",
		},
		[]string{"type"},
	)

	dropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auctionwatch_events_dropped_total",
			Help: "Total number of events dropped on full subscriber queues",
		},
		[]string{"type"},
	)

	subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auctionwatch_event_subscribers",
			Help: "Number of connected event subscribers",
		},
	)
)

func publishedInc(eventType string) {
	published.WithLabelValues(eventType).Inc()
}

func droppedInc(eventType string) {
	dropped.WithLabelValues(eventType).Inc()
}

func subscribersSet(n int) {
	subscribers.Set(float64(n))
}
