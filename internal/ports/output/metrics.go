package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncUploads increments the upload counter.
	IncUploads(success bool)

	// ObserveUploadSize records the size of an uploaded image.
	ObserveUploadSize(bytes int)

	// IncMapFetches increments the map fetch counter.
	IncMapFetches(success bool)

	// ObserveMapFetchDuration records how long the map provider took.
	ObserveMapFetchDuration(duration time.Duration)

	// IncStorageOperations increments storage operation counter.
	IncStorageOperations(operation string, success bool)

	// ObserveStorageDuration records storage operation duration.
	ObserveStorageDuration(operation string, duration time.Duration)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncUploads implements MetricsCollector.
func (n *NoOpMetrics) IncUploads(_ bool) {}

// ObserveUploadSize implements MetricsCollector.
func (n *NoOpMetrics) ObserveUploadSize(_ int) {}

// IncMapFetches implements MetricsCollector.
func (n *NoOpMetrics) IncMapFetches(_ bool) {}

// ObserveMapFetchDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveMapFetchDuration(_ time.Duration) {}

// IncStorageOperations implements MetricsCollector.
func (n *NoOpMetrics) IncStorageOperations(_ string, _ bool) {}

// ObserveStorageDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}
