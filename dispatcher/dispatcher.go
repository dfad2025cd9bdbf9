// Package dispatcher implements the Dispatcher façade (spec.md 4.H): the
// single entry point callers use for both synchronous, straight-through
// execution and asynchronous, queue-backed submission.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aggieforge/coderunner/model"
	"github.com/aggieforge/coderunner/packages"
	"github.com/aggieforge/coderunner/queue"
	"github.com/aggieforge/coderunner/registry"
	"github.com/aggieforge/coderunner/runtime"
	"github.com/aggieforge/coderunner/store"
)

// ErrUnsupportedLanguage is returned by both ExecuteSync and SubmitAsync
// when no Runtime is registered for the requested language.
type ErrUnsupportedLanguage struct{ Language string }

func (e *ErrUnsupportedLanguage) Error() string {
	return fmt.Sprintf("language not supported: %s", e.Language)
}

// Dispatcher is the single object callers (the HTTP server, a CLI) drive.
type Dispatcher struct {
	registry *registry.Registry
	sandbox  runtime.Sandbox
	queue    queue.Queue
	store    store.Store
}

func New(reg *registry.Registry, sb runtime.Sandbox, q queue.Queue, st store.Store) *Dispatcher {
	return &Dispatcher{registry: reg, sandbox: sb, queue: q, store: st}
}

// ExecuteSync resolves language, runs code straight through the
// registry and sandbox, and returns the terminal result without ever
// touching the queue or store. This is the path spec.md 4.H calls
// "straight-through" — used for low-latency synchronous callers.
func (d *Dispatcher) ExecuteSync(ctx context.Context, language, code string, cfg model.ExecutionConfig) (model.ExecutionResult, error) {
	rt, ok := d.registry.Get(language)
	if !ok {
		return model.ExecutionResult{}, &ErrUnsupportedLanguage{Language: language}
	}
	if err := packages.Check(rt.LanguageName(), cfg.Packages); err != nil {
		return model.ExecutionResult{}, err
	}
	return runtime.Execute(ctx, rt, d.sandbox, code, cfg), nil
}

// SubmitAsync validates the language up front (so a caller gets an
// immediate 4xx rather than a silently-queued job that a worker later
// fails), records a queued ExecutionRecord, and pushes the job onto the
// Task Queue for a Worker to claim.
func (d *Dispatcher) SubmitAsync(ctx context.Context, language, code string, cfg model.ExecutionConfig) (string, error) {
	rt, ok := d.registry.Get(language)
	if !ok {
		return "", &ErrUnsupportedLanguage{Language: language}
	}
	if err := packages.Check(rt.LanguageName(), cfg.Packages); err != nil {
		return "", err
	}

	job := model.Job{
		ID:          uuid.NewString(),
		SubmittedAt: time.Now(),
		Language:    language,
		Code:        code,
		Config:      cfg,
	}

	if err := d.store.CreateQueued(ctx, job); err != nil {
		return "", fmt.Errorf("dispatcher: create queued record: %w", err)
	}
	if err := d.queue.Push(ctx, job); err != nil {
		return "", fmt.Errorf("dispatcher: push job: %w", err)
	}
	return job.ID, nil
}

// Poll returns the current lifecycle record for a previously submitted
// job.
func (d *Dispatcher) Poll(ctx context.Context, executionID string) (model.ExecutionRecord, error) {
	return d.store.Get(ctx, executionID)
}
