// Package metrics defines and registers all custom Prometheus metrics for the
// MovieStream API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package init
// via promauto and served by the echoprometheus handler at /metrics. The package
// imports nothing from the module so any layer can record into it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "moviestream"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// GateDecisionsTotal counts policy gate outcomes.
// Labels:
//   - requirement: "public", "authenticated", "role:subscriber", "role:admin"
//   - decision: "allow", "redirect" or "deny"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of access decisions, by requirement and decision.",
	},
	[]string{"requirement", "decision"},
)

// LoginAttemptsTotal counts login attempts.
// Labels:
//   - method: "credentials" or the identity provider name
//   - result: "success", "invalid" or "throttled"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// SessionRefreshTotal counts session refreshes.
// Label:
//   - result: "reissued", "stale" (store unavailable) or "rejected"
var SessionRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_refresh_total",
		Help:      "Total number of session refreshes, by result.",
	},
	[]string{"result"},
)

// EdgeFailOpenTotal counts requests the edge filter forwarded after failing
// to classify them.
var EdgeFailOpenTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "edge_fail_open_total",
		Help:      "Total number of requests forwarded after an edge filter failure.",
	},
)

// ── Billing metrics ───────────────────────────────────────────────────────────

// BillingEventsProcessedTotal counts webhook events applied successfully.
// Label:
//   - type: the provider event type (e.g. "invoice.paid")
var BillingEventsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "billing_events_processed_total",
		Help:      "Total number of billing events successfully processed.",
	},
	[]string{"type"},
)

// BillingEventsErrorsTotal counts webhook events that failed.
// Label:
//   - reason: short description (e.g. "account_not_found", "persist_failed")
var BillingEventsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "billing_events_errors_total",
		Help:      "Total number of billing events that failed processing.",
	},
	[]string{"reason"},
)

// BillingEventsDedupTotal counts deduplication decisions.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss"
var BillingEventsDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "billing_events_dedup_total",
		Help:      "Total number of deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// BillingEventsRetriedTotal counts transient failures that were retried.
var BillingEventsRetriedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "billing_events_retried_total",
		Help:      "Total number of billing event attempts retried after a transient failure.",
	},
)

// BillingEventsDeadLetteredTotal counts events stored after every attempt failed.
var BillingEventsDeadLetteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "billing_events_dead_lettered_total",
		Help:      "Total number of billing events written to the dead-letter collection.",
	},
)

// BillingEventsQueueDepth tracks pending events per dispatcher worker.
var BillingEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "billing_events_queue_depth",
		Help:      "Current number of billing events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// BillingEventProcessingDuration measures dequeue-to-persistence time.
// Label:
//   - type: event type, or "error" on failure
var BillingEventProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "billing_event_processing_duration_seconds",
		Help:      "Duration of billing event processing from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"type"},
)

// ── Catalog metrics ───────────────────────────────────────────────────────────

// MoviesCreatedTotal counts catalog inserts.
// Label:
//   - source: "manual" or "tmdb"
var MoviesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movies_created_total",
		Help:      "Total number of movies added to the catalog, by source.",
	},
	[]string{"source"},
)

// CacheLookupsTotal counts in-memory cache lookups.
// Labels:
//   - cache: cache name (e.g. "movies", "stats")
//   - result: "hit" or "miss"
var CacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Total number of in-memory cache lookups, by cache and result.",
	},
	[]string{"cache", "result"},
)
