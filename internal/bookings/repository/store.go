package repository

import (
	"context"

	"campsite/pkg/model"
)

const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// Store hands out the append-only event log of each date.
type Store interface {
	Open(ctx context.Context, date model.Date) (EventLog, error)
	Close(ctx context.Context) error
}

// EventLog is owned by exactly one shard writer. It is never rewritten, only appended to.
type EventLog interface {
	// ReadAll returns every record from the beginning of the log.
	ReadAll(ctx context.Context) ([]model.ShardEvent, error)
	Append(ctx context.Context, ev model.ShardEvent) error
	Close() error
}
