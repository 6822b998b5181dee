// Package metrics defines and registers all custom Prometheus metrics for the
// farm backend. It is the single source of truth for metric names, labels and
// help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// when the package is loaded.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "farm"

// ── Account lifecycle ─────────────────────────────────────────────────────────

// AuthOperationsTotal counts account lifecycle calls.
// Labels:
//   - operation: "register", "verify", "login", "otp_create", "reset_request",
//     "reset_verify", "reset_confirm", "password_change", "refresh"
//   - result: "ok" or "error"
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of account lifecycle operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// ── Memberships ───────────────────────────────────────────────────────────────

// MembersCreatedTotal counts farm users added to a farm.
var MembersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "members_created_total",
		Help:      "Total number of farm users created through a farm membership.",
	},
)

// ConsultantRequestsTotal counts consultant workflow transitions.
// Label:
//   - action: "sent", "accept" or "decline"
var ConsultantRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consultant_requests_total",
		Help:      "Total number of consultant requests sent and managed.",
	},
	[]string{"action"},
)

// ── Notifications ─────────────────────────────────────────────────────────────

// NotificationsTotal counts background notifications by outcome.
// Labels:
//   - kind: mail kind (e.g. "password_changed", "member_added")
//   - result: "sent", "failed" or "dropped" (queue full)
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of background notifications, by kind and result.",
	},
	[]string{"kind", "result"},
)

// NotificationsQueueDepth tracks the number of notifications waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationDeliveryDuration measures how long the mailer takes per notification.
var NotificationDeliveryDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_delivery_duration_seconds",
		Help:      "Duration of a single notification delivery through the configured mailer.",
		Buckets:   prometheus.DefBuckets,
	},
)

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
