package ingestsync

import "time"

const (
	// DefaultBatchSize is the per-tick item budget.
	DefaultBatchSize = 100
	// DefaultDeleteQueueCapacity bounds the persisted delete queue.
	DefaultDeleteQueueCapacity = 500
	// DefaultInterval is the tick interval.
	DefaultInterval = time.Minute
	// MinInterval is the smallest accepted tick interval.
	MinInterval = time.Minute

	defaultPollInterval = time.Second
)

// Config defines engine, queue and worker behavior.
type Config struct {
	SiteID              string
	TenantID            string
	AllowedStatuses     []string
	RecordIDField       string
	DeleteQueueCapacity int
	BatchSize           int
	Interval            time.Duration
	PollInterval        time.Duration
	Async               bool
	asyncSet            bool
	Clock               Clock
	Logger              Logger
	Metrics             Metrics
	Hooks               FailureHooks
	Predicates          *PredicateChain
	Transformer         Transformer
	SyncIndex           SyncIndex
	Markers             MarkerStore
	Locker              Locker
}

func (c Config) withDefaults() Config {
	if c.SiteID == "" {
		c.SiteID = "0"
	}
	if c.TenantID == "" {
		c.TenantID = "0"
	}
	if len(c.AllowedStatuses) == 0 {
		c.AllowedStatuses = []string{StatusPublished}
	}
	if c.RecordIDField == "" {
		c.RecordIDField = DefaultRecordIDField
	}
	if c.DeleteQueueCapacity <= 0 {
		c.DeleteQueueCapacity = DefaultDeleteQueueCapacity
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Interval < MinInterval {
		c.Interval = MinInterval
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if !c.asyncSet {
		c.Async = true
	}
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = NopMetrics{}
	}
	if c.Predicates == nil {
		c.Predicates = NewPredicateChain()
	}
	if c.Transformer == nil {
		c.Transformer = DefaultTransformer()
	}

	return c
}

func buildConfig(opts []Option) Config {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg.withDefaults()
}

// Option configures engine components.
type Option func(*Config)

// WithSite sets the site and tenant parts of composite record ids.
func WithSite(siteID, tenantID string) Option {
	return func(c *Config) {
		c.SiteID = siteID
		c.TenantID = tenantID
	}
}

// WithAllowedStatuses sets the host statuses eligible for ingestion.
func WithAllowedStatuses(statuses ...string) Option {
	return func(c *Config) {
		c.AllowedStatuses = statuses
	}
}

// WithRecordIDField sets the payload field that carries the composite record id.
func WithRecordIDField(field string) Option {
	return func(c *Config) {
		c.RecordIDField = field
	}
}

// WithDeleteQueueCapacity bounds the persisted delete queue.
func WithDeleteQueueCapacity(capacity int) Option {
	return func(c *Config) {
		c.DeleteQueueCapacity = capacity
	}
}

// WithBatchSize sets the default per-tick item budget.
func WithBatchSize(size int) Option {
	return func(c *Config) {
		c.BatchSize = size
	}
}

// WithInterval sets the tick interval. Values below MinInterval are raised to it.
func WithInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.Interval = interval
	}
}

// WithPollInterval sets how often the worker checks whether a tick is due.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = interval
	}
}

// WithAsync toggles queueing of host events. When disabled, hooks sync inline.
func WithAsync(enabled bool) Option {
	return func(c *Config) {
		c.Async = enabled
		c.asyncSet = true
	}
}

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics Metrics) Option {
	return func(c *Config) {
		c.Metrics = metrics
	}
}

// WithFailureHooks registers failure notifications.
func WithFailureHooks(hooks FailureHooks) Option {
	return func(c *Config) {
		c.Hooks = hooks
	}
}

// WithPredicates sets the should-ingest predicate chain.
func WithPredicates(chain *PredicateChain) Option {
	return func(c *Config) {
		c.Predicates = chain
	}
}

// WithTransformer sets the payload transformer.
func WithTransformer(transformer Transformer) Option {
	return func(c *Config) {
		c.Transformer = transformer
	}
}

// WithSyncIndex sets the sync queue index. Defaults to a KV document.
func WithSyncIndex(index SyncIndex) Option {
	return func(c *Config) {
		c.SyncIndex = index
	}
}

// WithMarkerStore sets the ingestion attempt markers. Defaults to KV keys.
func WithMarkerStore(markers MarkerStore) Option {
	return func(c *Config) {
		c.Markers = markers
	}
}

// WithLocker sets a cross-process lock taken around each worker tick.
func WithLocker(locker Locker) Option {
	return func(c *Config) {
		c.Locker = locker
	}
}
