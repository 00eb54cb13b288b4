// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followup_alerts_generated_total",
			Help: "Alerts produced by classification, by type and priority",
		},
		[]string{"type", "priority"},
	)

	AlertProspectsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "followup_alert_prospects_skipped_total",
			Help: "Prospects excluded from aggregation because their follow-ups could not be loaded",
		},
	)

	AutoCreatedTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followup_auto_created_tasks_total",
			Help: "Follow-up tasks created or skipped by the auto-create path",
		},
		[]string{"result"},
	)

	SchedulerScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_scheduler_scans_total",
			Help: "Due-date scheduler ticks by outcome",
		},
		[]string{"status"},
	)

	SchedulersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_schedulers_active",
			Help: "Number of armed per-user schedulers",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notifications delivered, by kind and status",
		},
		[]string{"kind", "status"},
	)

	DigestsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_digests_sent_total",
			Help: "Daily digest emails by status",
		},
		[]string{"status"},
	)

	MailboxMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailbox_sync_messages_total",
			Help: "Mailbox messages seen by sync, by outcome",
		},
		[]string{"outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	IntegrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Errors returned by external services",
		},
		[]string{"service"},
	)
)

func RecordIntegrationError(service string) {
	IntegrationErrors.WithLabelValues(service).Inc()
}
