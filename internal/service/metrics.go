package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	metricsmw "github.com/ken-b2024/ecommerce-api/pkg/middleware/metrics"
)

var (
	ordersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsmw.Namespace,
		Name:      "orders_placed_total",
		Help:      "Orders committed by the order workflow",
	})

	ordersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsmw.Namespace,
		Name:      "orders_rejected_total",
		Help:      "Orders aborted by the order workflow, by reason",
	}, []string{"reason"})

	orderValue = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsmw.Namespace,
		Name:      "order_total_price",
		Help:      "Total price of committed orders",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})
)
