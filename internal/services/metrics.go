// Package services – ingestion metrics
//
// Prometheus collectors for the ingestion pipeline. Labels are kept to a
// bounded outcome set (accepted/duplicate/spam/rejected) rather than per-site
// values so cardinality stays flat regardless of tenant count.
package services

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeAccepted  = "accepted"
	outcomeDuplicate = "duplicate"
	outcomeSpam      = "spam"
	outcomeRejected  = "rejected"
)

var (
	// ingestTotal counts webhook submissions by pipeline outcome.
	ingestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_ingest_total",
			Help: "Total number of webhook submissions by pipeline outcome.",
		},
		[]string{"outcome"},
	)

	// qualityScores records the distribution of quality scores for accepted leads.
	qualityScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lead_quality_score",
			Help:    "Quality score distribution of stored leads.",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	// spamScores records the distribution of spam scores across all scored leads.
	spamScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lead_spam_score",
			Help:    "Spam score distribution of scored leads.",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)
)

func init() {
	prometheus.MustRegister(ingestTotal, qualityScores, spamScores)
}
