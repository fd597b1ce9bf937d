package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coinpulse",
		Subsystem: "ingest",
		Name:      "cycles_total",
		Help:      "Ingestion cycles by mode and outcome (success, failed, skipped).",
	}, []string{"mode", "outcome"})

	ingestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coinpulse",
		Subsystem: "ingest",
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of executed ingestion cycles.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"mode"})

	ingestRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coinpulse",
		Subsystem: "ingest",
		Name:      "records_written_total",
		Help:      "Records written per store.",
	}, []string{"store"})

	ingestLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "coinpulse",
		Subsystem: "ingest",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful ingestion cycle.",
	})
)
