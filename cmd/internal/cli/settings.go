package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/velmie/ingestsync"
)

const envPrefix = "INGESTSYNC"

// Supported storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Settings is the resolved command configuration.
type Settings struct {
	SiteID   string
	TenantID string

	API APISettings
	DB  DBSettings

	Interval       time.Duration
	BatchSize      int
	DeleteCapacity int
	IngestTypes    []string

	LogLevel string
	LogFile  string
}

// APISettings configures the ingestion API client.
type APISettings struct {
	InstanceURL string
	Token       string
	SourceName  string
	ObjectName  string
	Timeout     time.Duration
}

// DBSettings selects the storage backend.
type DBSettings struct {
	Driver       string
	DSN          string
	ContentTable string
}

// ClientConfig maps the API settings to a client configuration.
func (s Settings) ClientConfig() ingestsync.ClientConfig {
	return ingestsync.ClientConfig{
		InstanceURL: s.API.InstanceURL,
		Token:       s.API.Token,
		SourceName:  s.API.SourceName,
		ObjectName:  s.API.ObjectName,
		Timeout:     s.API.Timeout,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("site_id", "0")
	v.SetDefault("tenant_id", "0")
	v.SetDefault("api.timeout", ingestsync.DefaultBulkTimeout)
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.dsn", "ingestsync.db")
	v.SetDefault("db.content_table", "content")
	v.SetDefault("worker.interval", ingestsync.DefaultInterval)
	v.SetDefault("worker.batch_size", ingestsync.DefaultBatchSize)
	v.SetDefault("queue.delete_capacity", ingestsync.DefaultDeleteQueueCapacity)
	v.SetDefault("log.level", "info")

	return v
}

// loadSettings reads the optional config file and resolves every key.
func loadSettings(v *viper.Viper, configFile string) (Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	s := Settings{
		SiteID:   v.GetString("site_id"),
		TenantID: v.GetString("tenant_id"),
		API: APISettings{
			InstanceURL: v.GetString("api.instance_url"),
			Token:       v.GetString("api.token"),
			SourceName:  v.GetString("api.source_name"),
			ObjectName:  v.GetString("api.object_name"),
			Timeout:     v.GetDuration("api.timeout"),
		},
		DB: DBSettings{
			Driver:       strings.ToLower(v.GetString("db.driver")),
			DSN:          v.GetString("db.dsn"),
			ContentTable: v.GetString("db.content_table"),
		},
		Interval:       v.GetDuration("worker.interval"),
		BatchSize:      v.GetInt("worker.batch_size"),
		DeleteCapacity: v.GetInt("queue.delete_capacity"),
		IngestTypes:    splitList(v.GetStringSlice("ingest.types")),
		LogLevel:       v.GetString("log.level"),
		LogFile:        v.GetString("log.file"),
	}

	if s.DB.Driver != DriverSQLite && s.DB.Driver != DriverMySQL {
		return Settings{}, fmt.Errorf("unsupported driver %q: must be %s or %s", s.DB.Driver, DriverSQLite, DriverMySQL)
	}
	if s.DB.DSN == "" {
		return Settings{}, errors.New("db.dsn is required")
	}

	return s, nil
}

// splitList flattens comma separated entries, as environment values arrive as
// a single string.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
