package providers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/samber/do/v2"

	"github.com/todosync/todosync-server/internal/config"
	"github.com/todosync/todosync-server/internal/logger"
	"github.com/todosync/todosync-server/internal/sse"
	"github.com/todosync/todosync-server/internal/store/sqlstore"
)

// DataDirLockHandle holds an exclusive lock on the data directory so two
// servers never share one sqlite file or search index.
type DataDirLockHandle struct {
	*flock.Flock
}

// Shutdown implements do.Shutdownable.
func (h *DataDirLockHandle) Shutdown() error {
	return h.Unlock()
}

// ProvideDataDirLock acquires the data directory lock or fails fast.
func ProvideDataDirLock(i do.Injector) (*DataDirLockHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Database.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	lock := flock.New(cfg.Database.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock data dir: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("data dir %s is in use by another process", cfg.Database.DataDir)
	}

	log.Debug("Data directory locked", "path", cfg.Database.LockPath())
	return &DataDirLockHandle{Flock: lock}, nil
}

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
	grace  time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(h.grace))
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the change notifier's event stream manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(sse.Options{
		EventBuffer:       cfg.Notifier.EventBuffer,
		ClientBuffer:      cfg.Notifier.ClientBuffer,
		HeartbeatInterval: cfg.Notifier.HeartbeatInterval,
	}, log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started", "heartbeat", cfg.Notifier.HeartbeatInterval)

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
		grace:   cfg.Server.ShutdownTimeout,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlstore.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the entity store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Database.Driver == sqlstore.DriverSQLite {
		do.MustInvoke[*DataDirLockHandle](i)
	}

	db, err := sqlstore.Open(sqlstore.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.SQLitePath(),
		DSN:    cfg.Database.DSN,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == sqlstore.DriverSQLite {
		log.Info("Database initialized", "driver", cfg.Database.Driver, "path", cfg.Database.SQLitePath())
	} else {
		log.Info("Database initialized", "driver", cfg.Database.Driver)
	}

	return &StoreHandle{Store: db}, nil
}
