// Package history keeps a persistent log of finished builds and the
// documents each one rendered.
package history

import (
	"context"
	"time"
)

// BuildRecord summarizes one finished build.
type BuildRecord struct {
	ID          string
	StartedAt   time.Time
	Duration    time.Duration
	Outcome     string
	Source      string
	Destination string
	Revision    string
	Templates   int
	Documents   int
	Rendered    int
	Copied      int
	Error       string
	// Pages is only populated by Append callers; List leaves it empty.
	Pages []DocumentRecord
}

// DocumentRecord describes one document processed by a build.
type DocumentRecord struct {
	Key         string
	Source      string
	Template    string
	Output      string
	Fingerprint string
	Error       string
}

// Store persists build records.
type Store interface {
	Append(ctx context.Context, rec BuildRecord) error
	List(ctx context.Context, limit int) ([]BuildRecord, error)
	Documents(ctx context.Context, buildID string) ([]DocumentRecord, error)
	Close() error
}
