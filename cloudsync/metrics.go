package cloudsync

import "time"

// MetricsCollector receives measurements from sync passes.
type MetricsCollector interface {
	// RecordSyncDuration records how long one pass took, keyed by operation
	// ("full_sync" or "push_only").
	RecordSyncDuration(operation string, duration time.Duration)

	// RecordSyncRecords records how many records one pass moved.
	RecordSyncRecords(pushed, pulled int)

	// RecordSyncErrors records pass failures by type
	RecordSyncErrors(operation string, errorType string)

	// RecordDuplicatesRemoved records remote duplicates deleted by dedup.
	RecordDuplicatesRemoved(count int)
}

// NoOpMetricsCollector discards all measurements.
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) RecordSyncDuration(operation string, duration time.Duration) {}
func (n *NoOpMetricsCollector) RecordSyncRecords(pushed, pulled int)                        {}
func (n *NoOpMetricsCollector) RecordSyncErrors(operation string, errorType string)         {}
func (n *NoOpMetricsCollector) RecordDuplicatesRemoved(count int)                           {}
