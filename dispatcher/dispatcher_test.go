package dispatcher

import (
	"context"
	"errors"
	"testing"

	"github.com/aggieforge/coderunner/model"
	"github.com/aggieforge/coderunner/packages"
	"github.com/aggieforge/coderunner/queue"
	"github.com/aggieforge/coderunner/registry"
	"github.com/aggieforge/coderunner/sandbox"
	"github.com/aggieforge/coderunner/store"
)

type fakeSandbox struct {
	result model.ExecutionResult
}

func (f *fakeSandbox) Run(context.Context, sandbox.Spec) model.ExecutionResult {
	return f.result
}

func TestExecuteSyncReturnsResultForSupportedLanguage(t *testing.T) {
	reg := registry.Default()
	sb := &fakeSandbox{result: model.ExecutionResult{Stdout: "42", ExitCode: 0}}
	d := New(reg, sb, nil, nil)

	result, err := d.ExecuteSync(context.Background(), "python", "print(42)", model.ExecutionConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Stdout != "42" {
		t.Fatalf("Stdout = %q, want 42", result.Stdout)
	}
}

func TestExecuteSyncRejectsUnsupportedLanguage(t *testing.T) {
	d := New(registry.Default(), &fakeSandbox{}, nil, nil)

	_, err := d.ExecuteSync(context.Background(), "cobol", "", model.ExecutionConfig{})
	if _, ok := err.(*ErrUnsupportedLanguage); !ok {
		t.Fatalf("got %v, want *ErrUnsupportedLanguage", err)
	}
}

func TestExecuteSyncRejectsUnauthorizedPackageWithoutRunningSandbox(t *testing.T) {
	sb := &fakeSandbox{result: model.ExecutionResult{Stdout: "should not run"}}
	d := New(registry.Default(), sb, nil, nil)

	_, err := d.ExecuteSync(context.Background(), "python", "import malicious_xyz",
		model.ExecutionConfig{Packages: []string{"malicious-xyz"}})
	var unauthorized *packages.UnauthorizedPackageError
	if !errors.As(err, &unauthorized) {
		t.Fatalf("got %v, want *packages.UnauthorizedPackageError", err)
	}
}

func TestSubmitAsyncThenPoll(t *testing.T) {
	q, err := queue.NewFileQueue(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	d := New(registry.Default(), &fakeSandbox{}, q, st)

	id, err := d.SubmitAsync(context.Background(), "python", "print(1)", model.ExecutionConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected a non-empty execution id")
	}

	rec, err := d.Poll(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != model.StatusQueued {
		t.Fatalf("status = %q, want queued", rec.Status)
	}

	job, err := q.Pop(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if job.ID != id {
		t.Fatalf("popped job id = %q, want %q", job.ID, id)
	}
}

func TestSubmitAsyncRejectsUnauthorizedPackageBeforeQueueing(t *testing.T) {
	q, err := queue.NewFileQueue(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	d := New(registry.Default(), &fakeSandbox{}, q, st)

	_, err = d.SubmitAsync(context.Background(), "python", "import malicious_xyz",
		model.ExecutionConfig{Packages: []string{"malicious-xyz"}})
	var unauthorized *packages.UnauthorizedPackageError
	if !errors.As(err, &unauthorized) {
		t.Fatalf("got %v, want *packages.UnauthorizedPackageError", err)
	}

	size, err := q.Size(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if size != 0 {
		t.Fatalf("queue size = %d, want 0: an unauthorized-package job should never be queued", size)
	}
}

func TestSubmitAsyncRejectsUnsupportedLanguage(t *testing.T) {
	q, err := queue.NewFileQueue(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	d := New(registry.Default(), &fakeSandbox{}, q, st)

	_, err = d.SubmitAsync(context.Background(), "cobol", "", model.ExecutionConfig{})
	if _, ok := err.(*ErrUnsupportedLanguage); !ok {
		t.Fatalf("got %v, want *ErrUnsupportedLanguage", err)
	}
}
