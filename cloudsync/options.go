package cloudsync

import (
	"time"

	"github.com/i4ali/macrosnap/logging"
	"github.com/i4ali/macrosnap/remote"
)

// Options configures the sync engine and controller.
type Options struct {
	// BatchSize is the number of records per remote save call. Capped at
	// remote.MaxBatchSize.
	BatchSize int

	// SyncTimeout bounds one full sync pass.
	SyncTimeout time.Duration

	// SyncInterval is the period between automatic sync passes.
	SyncInterval time.Duration

	// MetricsCollector receives sync metrics. Defaults to a no-op collector.
	MetricsCollector MetricsCollector

	// Logger is the base logger; components derive child loggers from it.
	Logger *logging.Logger
}

// DefaultOptions returns options suitable for most deployments.
func DefaultOptions() Options {
	return Options{
		BatchSize:        remote.MaxBatchSize,
		SyncTimeout:      5 * time.Minute,
		SyncInterval:     15 * time.Minute,
		MetricsCollector: &NoOpMetricsCollector{},
		Logger:           logging.Default(),
	}
}

func (o *Options) setDefaults() {
	if o.BatchSize <= 0 || o.BatchSize > remote.MaxBatchSize {
		o.BatchSize = remote.MaxBatchSize
	}
	if o.SyncTimeout <= 0 {
		o.SyncTimeout = 5 * time.Minute
	}
	if o.SyncInterval <= 0 {
		o.SyncInterval = 15 * time.Minute
	}
	if o.MetricsCollector == nil {
		o.MetricsCollector = &NoOpMetricsCollector{}
	}
	if o.Logger == nil {
		o.Logger = logging.Default()
	}
}

// Option mutates Options during construction.
type Option func(*Options)

// WithBatchSize sets the records-per-save-call chunk size.
func WithBatchSize(n int) Option {
	return func(o *Options) { o.BatchSize = n }
}

// WithSyncTimeout bounds one full sync pass.
func WithSyncTimeout(d time.Duration) Option {
	return func(o *Options) { o.SyncTimeout = d }
}

// WithSyncInterval sets the automatic sync period.
func WithSyncInterval(d time.Duration) Option {
	return func(o *Options) { o.SyncInterval = d }
}

// WithMetricsCollector sets the metrics sink.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *Options) { o.MetricsCollector = mc }
}

// WithLogger sets the base logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Options) { o.Logger = l }
}
