package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free JSON Lines backend
//   - "sqlite": SQLite database file (build with -tags sqlite)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// CheckRecord is one completed availability check.
// Keep it compact and schema-stable.
type CheckRecord struct {
	App       string    `json:"app"`
	Available bool      `json:"available"`
	At        time.Time `json:"at"`
}
