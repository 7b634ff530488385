// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"
)

// Storage tracks which feed items have already been dispatched.
type Storage interface {
	MarkSeen(ctx context.Context, feedURL, guid string) error
	IsSeen(ctx context.Context, feedURL, guid string) (bool, error)
	PruneSeen(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
