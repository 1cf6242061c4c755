package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beaconly_events_ingested_total",
		Help: "Total number of beacons persisted to the event store.",
	})

	EventsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beaconly_events_rejected_total",
		Help: "Total number of beacons rejected as malformed.",
	})

	NotificationsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beaconly_notifications_enqueued_total",
		Help: "Total number of notifications accepted by the dispatcher queue.",
	})

	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beaconly_notifications_dropped_total",
		Help: "Total number of notifications dropped due to a full queue.",
	})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beaconly_notifications_sent_total",
		Help: "Total number of chat deliveries attempted, labelled by status.",
	}, []string{"status"})

	ReportsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beaconly_reports_sent_total",
		Help: "Total number of scheduled summary reports delivered.",
	})

	ReportsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beaconly_reports_skipped_total",
		Help: "Total number of report evaluations skipped, labelled by reason.",
	}, []string{"reason"})
)
