package sniffer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// inferenceTotal counts inference runs by outcome (ok, empty_sample, delimiter_indeterminate, invalid).
	inferenceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sniffer_inference_total",
		Help: "Total number of dialect inference runs by outcome",
	}, []string{"outcome"})

	// delimiterSource counts which path resolved the delimiter.
	delimiterSource = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sniffer_delimiter_source_total",
		Help: "Total number of resolved delimiters by the sniffer that resolved them",
	}, []string{"source"}) // source: adjacency, consistency, distribution

	// inferenceDuration tracks the time taken for a full inference.
	inferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sniffer_inference_duration_seconds",
		Help:    "Time taken to infer a dialect",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	// sampleRunes tracks the size of the samples being sniffed.
	sampleRunes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sniffer_sample_runes",
		Help:    "Number of characters in sniffed samples",
		Buckets: []float64{100, 500, 1000, 2500, 5000, 10000},
	})

	// quoteStyles counts inferred quoting styles.
	quoteStyles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sniffer_quote_style_total",
		Help: "Total number of inferred quoting styles",
	}, []string{"style"})
)
