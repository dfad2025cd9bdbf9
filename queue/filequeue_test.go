package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aggieforge/coderunner/model"
)

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func TestFileQueuePushThenPop(t *testing.T) {
	q, err := NewFileQueue(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	job := model.Job{ID: "job-1", Language: "python", Code: "print(1)"}
	if err := q.Push(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	size, err := q.Size(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if size != 1 {
		t.Fatalf("Size() = %d, want 1", size)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := q.Pop(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != job.ID || got.Code != job.Code {
		t.Fatalf("Pop() = %+v, want %+v", got, job)
	}

	size, err = q.Size(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if size != 0 {
		t.Fatalf("Size() after pop = %d, want 0", size)
	}
}

func TestFileQueuePopOrdersFIFO(t *testing.T) {
	q, err := NewFileQueue(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first := model.Job{ID: "first", SubmittedAt: time.Now()}
	if err := q.Push(context.Background(), first); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	second := model.Job{ID: "second", SubmittedAt: time.Now()}
	if err := q.Push(context.Background(), second); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := q.Pop(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "first" {
		t.Fatalf("Pop() = %q, want the earlier-submitted job first", got.ID)
	}
}

func TestFileQueueDoneClearsProcessingEntry(t *testing.T) {
	dir := t.TempDir()
	q, err := NewFileQueue(dir)
	if err != nil {
		t.Fatal(err)
	}

	job := model.Job{ID: "job-2", Language: "python", Code: "print(2)"}
	if err := q.Push(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := q.Pop(ctx); err != nil {
		t.Fatal(err)
	}

	entries, err := readDirNames(q.processingDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("processing dir = %v, want exactly one claimed entry", entries)
	}

	if err := q.Done(context.Background(), job.ID); err != nil {
		t.Fatal(err)
	}

	entries, err = readDirNames(q.processingDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("processing dir after Done = %v, want empty", entries)
	}
}

func TestFileQueuePopBlocksUntilContextDone(t *testing.T) {
	q, err := NewFileQueue(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_, err = q.Pop(ctx)
	if err == nil {
		t.Fatal("Pop() on an empty queue should block until ctx is done, then return an error")
	}
}
