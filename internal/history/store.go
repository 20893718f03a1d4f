// Package history keeps an append-only log of build events in SQLite and
// summarizes it for `bookbuilder history`.
package history

import (
	"context"
	"time"
)

// Event types.
const (
	TypeBuildStarted  = "BuildStarted"
	TypePageFailed    = "PageFailed"
	TypeBuildFinished = "BuildFinished"
)

// Event is one stored record.
type Event struct {
	ID        int64
	BuildID   string
	Type      string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// Store defines the interface for persisting and retrieving events.
type Store interface {
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)
	Close() error
}
