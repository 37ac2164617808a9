package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "slotwatch/pkg/logx"
)

// Store is the minimal persistence API used by the monitor and the digest.
type Store interface {
	AppendCheck(ctx context.Context, rec CheckRecord) error
	// RecentChecks returns records at or after since, oldest first.
	RecentChecks(ctx context.Context, since time.Time) ([]CheckRecord, error)
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
