package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// sniffRequests counts sniff requests by input kind (text, url, upload, zip).
	sniffRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialect_sniff_requests_total",
		Help: "Total number of sniff requests by input kind",
	}, []string{"input"})

	// cacheLookups counts result cache lookups by outcome.
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialect_cache_lookups_total",
		Help: "Total number of sniff result cache lookups",
	}, []string{"result"}) // result: hit, miss, error

	archiveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dialect_archive_failures_total",
		Help: "Total number of samples that could not be archived",
	})

	recordsServed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dialect_records_served",
		Help:    "Number of records returned per records request",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 10000},
	})
)
