// Package store implements the Result Store (spec.md 4.E): the lifecycle
// record for each job, from queued through its terminal state, plus the
// process-wide aggregate counters callers poll via /metrics. Grounded on
// original_source/src/common/file_storage.py and the hash half of
// common/queue.py.
package store

import (
	"context"
	"errors"

	"github.com/aggieforge/coderunner/model"
)

// ErrNotFound is returned when no record exists for a given execution id.
var ErrNotFound = errors.New("store: execution not found")

// ErrAlreadyTerminal is returned by SaveResult when a record's status is
// already completed or failed. Per spec.md invariant I2, a terminal write
// is immutable: a second save must be rejected outright rather than
// silently overwrite the first result or double-count the aggregate
// metrics.
var ErrAlreadyTerminal = errors.New("store: execution already has a terminal result")

// Store is the Result Store contract. CreateQueued and MarkRunning are the
// two legal pre-terminal transitions (queued -> running); SaveResult is
// the single terminal write (running -> completed|failed).
type Store interface {
	CreateQueued(ctx context.Context, job model.Job) error
	MarkRunning(ctx context.Context, executionID string) error
	SaveResult(ctx context.Context, executionID string, result model.ExecutionResult) error
	Get(ctx context.Context, executionID string) (model.ExecutionRecord, error)

	// Metrics reports the process-wide aggregate counters: total jobs
	// that reached a terminal status (completed or failed), total that
	// failed, and total execution time across all terminal jobs.
	Metrics(ctx context.Context) (Counters, error)
}

// Counters is the aggregate metrics snapshot, mirroring
// original_source's data/metrics/counters.json shape.
type Counters struct {
	TotalProcessed  int64
	TotalFailed     int64
	TotalDurationMs int64
}
