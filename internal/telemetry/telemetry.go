// Package telemetry holds the process-wide Prometheus collectors.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ticket_agent"

var (
	TicketsAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tickets_analyzed_total",
		Help:      "Analysed tickets by method, category and priority.",
	}, []string{"method", "category", "priority"})

	ModelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "model_calls_total",
		Help:      "Generative model calls by outcome.",
	}, []string{"outcome"})

	ModelLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "model_call_seconds",
		Help:      "Latency of generative model calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45},
	})

	SinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_failures_total",
		Help:      "Best-effort sink writes that failed, by sink.",
	}, []string{"sink"})

	RejectedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rejected_records_total",
		Help:      "Ticket records rejected during normalisation, by reason.",
	}, []string{"reason"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeUnparseable = "unparseable"

	SinkExport  = "export"
	SinkMetrics = "metrics"
)
