// internal/usecase/metrics.go
package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	walletsProvisioned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xrplbot_wallets_provisioned_total",
			Help: "Wallet provisioning attempts by outcome",
		},
		[]string{"status"},
	)

	transfersSettled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xrplbot_transfers_total",
			Help: "Submitted transfers by final status",
		},
		[]string{"status"},
	)

	priceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xrplbot_price_cache_lookups_total",
			Help: "Price history cache lookups by result",
		},
		[]string{"result"},
	)

	usecaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xrplbot_usecase_duration_seconds",
			Help:    "Duration of usecase operations",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)
)
