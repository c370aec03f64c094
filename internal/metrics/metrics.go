package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_notifications_dispatched_total",
		Help: "Notifications persisted, by type.",
	}, []string{"type"})

	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_audit_write_failures_total",
		Help: "Audit entries dropped because persistence failed.",
	})

	OutboxDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_outbox_dropped_total",
		Help: "Side-effect tasks dropped because the outbox buffer was full.",
	})

	OutboxProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_outbox_processed_total",
		Help: "Side-effect tasks executed by the outbox worker.",
	}, []string{"kind"})
)
