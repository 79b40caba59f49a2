package mysql

import "github.com/velmie/ingestsync"

const (
	defaultKVTable      = "ingestsync_kv"
	defaultSyncTable    = "ingestsync_sync_queue"
	defaultMarkerTable  = "ingestsync_markers"
	defaultContentTable = "content"
	defaultLockPrefix   = "ingestsync:tick:"
)

// Config defines MySQL store behavior.
type Config struct {
	KVTable      string
	SyncTable    string
	MarkerTable  string
	ContentTable string
	// LockName is the advisory lock name. Defaults to ingestsync:tick:<kv table>.
	LockName string
	Clock    ingestsync.Clock
	Logger   ingestsync.Logger
}

func (c Config) withDefaults() Config {
	if c.KVTable == "" {
		c.KVTable = defaultKVTable
	}
	if c.SyncTable == "" {
		c.SyncTable = defaultSyncTable
	}
	if c.MarkerTable == "" {
		c.MarkerTable = defaultMarkerTable
	}
	if c.ContentTable == "" {
		c.ContentTable = defaultContentTable
	}
	if c.LockName == "" {
		c.LockName = defaultLockPrefix + c.KVTable
	}
	if c.Clock == nil {
		c.Clock = ingestsync.SystemClock{}
	}
	if c.Logger == nil {
		c.Logger = ingestsync.NopLogger{}
	}

	return c
}

// Option configures the MySQL store.
type Option func(*Config)

// WithKVTable sets the key-value table name.
func WithKVTable(name string) Option {
	return func(c *Config) {
		c.KVTable = name
	}
}

// WithSyncTable sets the sync queue table name.
func WithSyncTable(name string) Option {
	return func(c *Config) {
		c.SyncTable = name
	}
}

// WithMarkerTable sets the attempt marker table name.
func WithMarkerTable(name string) Option {
	return func(c *Config) {
		c.MarkerTable = name
	}
}

// WithContentTable sets the host content table read by the RecordSource.
func WithContentTable(name string) Option {
	return func(c *Config) {
		c.ContentTable = name
	}
}

// WithLockName sets the advisory lock name used by the Locker.
func WithLockName(name string) Option {
	return func(c *Config) {
		c.LockName = name
	}
}

// WithClock sets the time source used by the store.
func WithClock(clock ingestsync.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithLogger sets the logger used for lock release warnings.
func WithLogger(logger ingestsync.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
