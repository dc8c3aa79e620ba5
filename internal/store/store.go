// Package store persists the local run log and exports combined tables to
// PostGIS.
package store

import (
	"context"
	"time"
)

// RunStatus is the lifecycle state of an accumulation run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord describes one multi-year accumulation run.
type RunRecord struct {
	ID         string
	Years      string // e.g. "2018-2022"
	Polygons   int
	Rows       int
	Output     string
	Status     RunStatus
	Error      string
	DurationMs int
	CreatedAt  time.Time
}

// Store is the run-log persistence interface.
type Store interface {
	Migrate(ctx context.Context) error
	RecordRun(ctx context.Context, rec RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	Close() error
}
