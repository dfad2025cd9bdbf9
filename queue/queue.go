// Package queue defines the Task Queue abstraction (spec.md 4.D) and its
// two interchangeable back-ends: a filesystem queue for single-host
// deployments and a Redis-backed queue for multi-host ones. Both
// implementations provide the same blocking-pop contract.
package queue

import (
	"context"
	"errors"

	"github.com/aggieforge/coderunner/model"
)

// ErrEmpty reports that no job is queued. Neither back-end's Pop returns
// it: both block until a job is available or ctx is done.
var ErrEmpty = errors.New("queue: no job available")

// Queue is the append/claim contract a Worker drives. Push enqueues a new
// job; Pop blocks (subject to ctx) until a job is available or ctx is
// done, then atomically removes it from the pending set so no two workers
// can claim the same job, per spec.md invariant I3.
type Queue interface {
	Push(ctx context.Context, job model.Job) error
	Pop(ctx context.Context) (model.Job, error)
	Size(ctx context.Context) (int, error)

	// Done clears any trace of executionID from the processing set once a
	// terminal result has been persisted, per spec.md 4.D's save_result
	// contract. Back-ends with no separate processing state (e.g. a
	// blocking-pop broker) may treat this as a no-op.
	Done(ctx context.Context, executionID string) error
}
