package store

import (
	"context"
	"testing"

	"github.com/aggieforge/coderunner/model"
)

func TestFileStoreLifecycle(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	job := model.Job{ID: "exec-1", Language: "python"}
	if err := s.CreateQueued(ctx, job); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Get(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != model.StatusQueued {
		t.Fatalf("status after create = %q, want queued", rec.Status)
	}

	if err := s.MarkRunning(ctx, job.ID); err != nil {
		t.Fatal(err)
	}
	rec, err = s.Get(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != model.StatusRunning || rec.StartedAt == nil {
		t.Fatalf("after MarkRunning: %+v", rec)
	}

	result := model.ExecutionResult{Stdout: "ok", ExitCode: 0, DurationMs: 42}
	if err := s.SaveResult(ctx, job.ID, result); err != nil {
		t.Fatal(err)
	}
	rec, err = s.Get(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != model.StatusCompleted || rec.Stdout != "ok" || rec.ExitCode == nil || *rec.ExitCode != 0 {
		t.Fatalf("after SaveResult: %+v", rec)
	}

	if err := s.SaveResult(ctx, job.ID, result); err != ErrAlreadyTerminal {
		t.Fatalf("second SaveResult: got %v, want ErrAlreadyTerminal", err)
	}

	counters, err := s.Metrics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counters.TotalProcessed != 1 || counters.TotalDurationMs != 42 {
		t.Fatalf("counters after one completion: %+v", counters)
	}
}

func TestFileStoreSaveResultMarksFailedOnNonZeroExit(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	job := model.Job{ID: "exec-2", Language: "python"}
	if err := s.CreateQueued(ctx, job); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRunning(ctx, job.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveResult(ctx, job.ID, model.ExecutionResult{ExitCode: 1, Stderr: "boom"}); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Get(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != model.StatusFailed {
		t.Fatalf("status = %q, want failed", rec.Status)
	}

	counters, err := s.Metrics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counters.TotalFailed != 1 {
		t.Fatalf("TotalFailed = %d, want 1", counters.TotalFailed)
	}
}

func TestFileStoreGetMissingReturnsErrNotFound(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background(), "does-not-exist"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
