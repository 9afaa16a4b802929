package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"pillbot/internal/course"
	logx "pillbot/pkg/logx"
)

// Config configures storage.
//
// Driver values:
//   - "file": JSON state file
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API used by the course store.
type Store interface {
	LoadAll(ctx context.Context) (map[int64]course.Record, error)
	SaveAll(ctx context.Context, recs map[int64]course.Record) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
