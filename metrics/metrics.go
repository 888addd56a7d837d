// Package metrics exposes Prometheus instrumentation for the attachment
// pipeline: uploads, cleanup activity and validation failures.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors updated by the lifecycle coordinator. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// UploadsTotal counts successful blob uploads, labeled by storage.
	UploadsTotal *prometheus.CounterVec

	// UploadBytesTotal counts bytes uploaded, labeled by storage.
	UploadBytesTotal *prometheus.CounterVec

	// CleanupDeletesTotal counts blobs purged at commit or rollback,
	// labeled by phase ("commit" or "rollback").
	CleanupDeletesTotal *prometheus.CounterVec

	// CleanupFailuresTotal counts purge attempts that failed, labeled by
	// phase.
	CleanupFailuresTotal *prometheus.CounterVec

	// ValidationFailuresTotal counts rejected descriptors, labeled by
	// column key.
	ValidationFailuresTotal *prometheus.CounterVec
}

// New registers the attachment collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		UploadsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "attach_uploads_total",
			Help: "Number of blobs uploaded to storage.",
		}, []string{"storage"}),
		UploadBytesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "attach_upload_bytes_total",
			Help: "Number of bytes uploaded to storage.",
		}, []string{"storage"}),
		CleanupDeletesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "attach_cleanup_deletes_total",
			Help: "Number of blobs purged during transaction cleanup.",
		}, []string{"phase"}),
		CleanupFailuresTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "attach_cleanup_failures_total",
			Help: "Number of failed purge attempts during transaction cleanup.",
		}, []string{"phase"}),
		ValidationFailuresTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "attach_validation_failures_total",
			Help: "Number of descriptors rejected by column validators.",
		}, []string{"key"}),
	}
}

// ObserveUpload records a successful upload of size bytes to storage.
func (m *Metrics) ObserveUpload(storage string, size int64) {
	if m == nil {
		return
	}
	m.UploadsTotal.WithLabelValues(storage).Inc()
	if size > 0 {
		m.UploadBytesTotal.WithLabelValues(storage).Add(float64(size))
	}
}

// ObserveCleanup records the outcome of one purge attempt in the given phase.
func (m *Metrics) ObserveCleanup(phase string, failed bool) {
	if m == nil {
		return
	}
	if failed {
		m.CleanupFailuresTotal.WithLabelValues(phase).Inc()
		return
	}
	m.CleanupDeletesTotal.WithLabelValues(phase).Inc()
}

// ObserveValidationFailure records a descriptor rejected on the given column.
func (m *Metrics) ObserveValidationFailure(key string) {
	if m == nil {
		return
	}
	m.ValidationFailuresTotal.WithLabelValues(key).Inc()
}
