// Package metrics defines and registers all custom Prometheus metrics for the
// service desk API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "servicedesk"

// ── Access control metrics ───────────────────────────────────────────────────

// AuthAttemptsTotal counts authentication attempts.
// Label:
//   - result: "success" or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by result.",
	},
	[]string{"result"},
)

// PermissionRepairsTotal counts records whose stored permissions or
// administrator invariants had to be restored.
// Label:
//   - stage: where the mismatch was found (e.g. "authenticate", "identify", "bootstrap")
var PermissionRepairsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_repairs_total",
		Help:      "Total number of user records repaired on read.",
	},
	[]string{"stage"},
)

// UserMutationsTotal counts committed user store mutations.
// Label:
//   - op: "create", "update" or "delete"
var UserMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_mutations_total",
		Help:      "Total number of committed user record mutations.",
	},
	[]string{"op"},
)

// ── Ticket metrics ────────────────────────────────────────────────────────────

// TicketsCreatedTotal counts newly created tickets.
// Label:
//   - priority: "low", "medium", "high" or "critical"
var TicketsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tickets_created_total",
		Help:      "Total number of tickets created, by priority.",
	},
	[]string{"priority"},
)

// ── Audit pipeline metrics ────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1")
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsTotal counts audit events by outcome.
// Label:
//   - result: "stored", "failed" or "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events handled by the dispatcher, by result.",
	},
	[]string{"result"},
)
