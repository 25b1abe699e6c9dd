// Package metrics exposes the service's Prometheus instruments.
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP
	RequestsTotal   *prometheus.CounterVec   // campusdocs_http_requests_total{method,route,status}
	RequestDuration *prometheus.HistogramVec // campusdocs_http_request_duration_seconds{method,route}

	// Domain
	AuditFailures    prometheus.Counter       // campusdocs_audit_failures_total
	VersionsRecorded prometheus.Counter       // campusdocs_versions_recorded_total
	ShareValidations *prometheus.CounterVec   // campusdocs_share_validations_total{result}
	BulkItems        *prometheus.CounterVec   // campusdocs_bulk_items_total{operation,result}
	Notifications    *prometheus.CounterVec   // campusdocs_notifications_total{type,status}
	BlobOperations   *prometheus.CounterVec   // campusdocs_blob_operations_total{operation,status}
	BlobDuration     *prometheus.HistogramVec // campusdocs_blob_operation_duration_seconds{operation}
	BytesStored      prometheus.Counter       // campusdocs_blob_bytes_stored_total
}

// New registers every metric on registry (prometheus.DefaultRegisterer when nil).
// Tests pass a fresh prometheus.NewRegistry().
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campusdocs_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campusdocs_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		AuditFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "campusdocs_audit_failures_total",
			Help: "Audit entries that could not be written",
		}),

		VersionsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "campusdocs_versions_recorded_total",
			Help: "Document versions appended",
		}),

		ShareValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campusdocs_share_validations_total",
			Help: "Share link validations by result",
		}, []string{"result"}),

		BulkItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campusdocs_bulk_items_total",
			Help: "Items processed by bulk operations",
		}, []string{"operation", "result"}),

		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campusdocs_notifications_total",
			Help: "Notifications dispatched by type and status",
		}, []string{"type", "status"}),

		BlobOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campusdocs_blob_operations_total",
			Help: "Byte storage operations by operation and status",
		}, []string{"operation", "status"}),

		BlobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campusdocs_blob_operation_duration_seconds",
			Help:    "Byte storage operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),

		BytesStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "campusdocs_blob_bytes_stored_total",
			Help: "Bytes written to byte storage",
		}),
	}
}

// RecordRequest records an HTTP request.
func (m *Metrics) RecordRequest(method, route, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// RecordAuditFailure counts an audit write that was dropped.
func (m *Metrics) RecordAuditFailure() {
	if m == nil {
		return
	}
	m.AuditFailures.Inc()
}

// RecordVersion counts an appended version.
func (m *Metrics) RecordVersion() {
	if m == nil {
		return
	}
	m.VersionsRecorded.Inc()
}

// RecordShareValidation counts a share validation outcome ("ok" or an error code).
func (m *Metrics) RecordShareValidation(result string) {
	if m == nil {
		return
	}
	m.ShareValidations.WithLabelValues(result).Inc()
}

// RecordBulk counts the per-item outcome of a bulk call.
func (m *Metrics) RecordBulk(operation string, succeeded, failed int) {
	if m == nil {
		return
	}
	m.BulkItems.WithLabelValues(operation, "ok").Add(float64(succeeded))
	m.BulkItems.WithLabelValues(operation, "failed").Add(float64(failed))
}

// RecordNotification counts a dispatched notification.
func (m *Metrics) RecordNotification(notificationType, status string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(notificationType, status).Inc()
}

// RecordBlob records a byte storage operation.
func (m *Metrics) RecordBlob(operation, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.BlobOperations.WithLabelValues(operation, status).Inc()
	m.BlobDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordStored counts bytes written to byte storage.
func (m *Metrics) RecordStored(bytes int64) {
	if m == nil {
		return
	}
	m.BytesStored.Add(float64(bytes))
}
