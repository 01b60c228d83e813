package replication

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livedoc_forward_batches_total",
		Help: "Total number of edit batches handed to forwarders",
	})

	deliveriesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livedoc_forward_deliveries_failed_total",
		Help: "Number of failed batch deliveries to subscribers",
	})

	subscribersDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livedoc_forward_subscribers_dropped_total",
		Help: "Number of subscribers removed after a failed delivery",
	})

	subscriberGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "livedoc_forward_subscribers",
		Help: "Current number of subscribers over all documents",
	})

	deliveryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "livedoc_forward_delivery_duration_seconds",
		Help:    "Duration of batch deliveries to subscribers",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"outcome"})
)
