package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	_ "github.com/go-sql-driver/mysql"

	"github.com/velmie/ingestsync"
	"github.com/velmie/ingestsync/mysql"
	"github.com/velmie/ingestsync/sqlite"
)

// app is a Service bound to the configured storage backend.
type app struct {
	svc      *ingestsync.Service
	settings Settings
	logger   ingestsync.Logger
	closers  []io.Closer
}

func openApp(ctx context.Context, opts *RootOptions, logOut io.Writer, extra ...ingestsync.Option) (*app, error) {
	s := opts.Settings
	logger, logCloser, err := newLogger(s.LogLevel, s.LogFile, opts.Verbose, logOut)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "configuration error", err)
	}

	a := &app{settings: s, logger: logger}
	if logCloser != nil {
		a.closers = append(a.closers, logCloser)
	}

	svcOpts := []ingestsync.Option{
		ingestsync.WithSite(s.SiteID, s.TenantID),
		ingestsync.WithInterval(s.Interval),
		ingestsync.WithBatchSize(s.BatchSize),
		ingestsync.WithDeleteQueueCapacity(s.DeleteCapacity),
		ingestsync.WithLogger(logger),
	}
	if len(s.IngestTypes) > 0 {
		svcOpts = append(svcOpts, ingestsync.WithPredicates(ingestsync.NewPredicateChain(ingestsync.IngestTypes(s.IngestTypes...))))
	}

	var (
		kv     ingestsync.KVStore
		source ingestsync.RecordSource
	)
	switch s.DB.Driver {
	case DriverMySQL:
		db, err := sql.Open("mysql", s.DB.DSN)
		if err != nil {
			a.Close()
			return nil, WrapExitError(ExitCommandError, "open mysql", err)
		}
		a.closers = append(a.closers, db)
		if err := db.PingContext(ctx); err != nil {
			a.Close()
			return nil, WrapExitError(ExitCommandError, "connect mysql", err)
		}
		store, err := mysql.NewStore(db, mysql.WithContentTable(s.DB.ContentTable), mysql.WithLogger(logger))
		if err != nil {
			a.Close()
			return nil, WrapExitError(ExitCommandError, "configure mysql store", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, WrapExitError(ExitCommandError, "ensure schema", err)
		}
		kv, source = store, store.Records()
		svcOpts = append(svcOpts,
			ingestsync.WithSyncIndex(store.SyncIndex()),
			ingestsync.WithMarkerStore(store.Markers()),
			ingestsync.WithLocker(store.Locker()),
		)
	default:
		store, err := sqlite.Open(s.DB.DSN)
		if err != nil {
			a.Close()
			return nil, WrapExitError(ExitCommandError, "open sqlite", err)
		}
		a.closers = append(a.closers, store)
		kv, source = store, store.Records()
		svcOpts = append(svcOpts,
			ingestsync.WithSyncIndex(store.SyncIndex()),
			ingestsync.WithMarkerStore(store.Markers()),
		)
	}

	svcOpts = append(svcOpts, extra...)
	client := ingestsync.NewClient(s.ClientConfig())
	a.svc = ingestsync.New(kv, client, source, svcOpts...)

	logger.Debug("ingestsync command ready", "driver", s.DB.Driver, "site_id", s.SiteID, "tenant_id", s.TenantID)

	return a, nil
}

// Close releases the backend and the log file in reverse order.
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = fmt.Errorf("close: %w", err)
		}
	}
	a.closers = nil

	return first
}
