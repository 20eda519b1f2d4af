package inmemory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/PremSaiBollamoni/tallybridge/internal/jobs"
	"github.com/PremSaiBollamoni/tallybridge/internal/pipeline"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.ImportInvoiceJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %q", jobID, want)
	return nil
}

func TestQueueProcessesJobs(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	handler := func(ctx context.Context, job *jobs.ImportInvoiceJob) *pipeline.ImportRun {
		return &pipeline.ImportRun{Key: "20251212_093045", Success: true}
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.ImportInvoiceJob{FileName: "invoice.pdf", FilePath: "/tmp/invoice.pdf"}
	if err := q.PublishImport(context.Background(), job); err != nil {
		t.Fatalf("PublishImport() error = %v", err)
	}
	if job.JobID == "" {
		t.Fatal("PublishImport() did not assign a job ID")
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.Run == nil || done.Run.Key != "20251212_093045" {
		t.Errorf("completed job run = %+v", done.Run)
	}
	if done.StartedAt == nil || done.CompletedAt == nil {
		t.Error("completed job missing timestamps")
	}
}

func TestQueueFailedRunIsNotRetried(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	var mu sync.Mutex
	calls := 0
	handler := func(ctx context.Context, job *jobs.ImportInvoiceJob) *pipeline.ImportRun {
		mu.Lock()
		calls++
		mu.Unlock()
		return &pipeline.ImportRun{Error: "extraction failed"}
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.ImportInvoiceJob{FileName: "bad.pdf"}
	if err := q.PublishImport(context.Background(), job); err != nil {
		t.Fatalf("PublishImport() error = %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.Error != "extraction failed" {
		t.Errorf("failed job error = %q", failed.Error)
	}

	// Give a would-be retry time to fire.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("handler called %d time(s), want exactly 1", calls)
	}
}

func TestQueueProcessesSequentially(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	var mu sync.Mutex
	running := 0
	maxRunning := 0
	var order []string

	handler := func(ctx context.Context, job *jobs.ImportInvoiceJob) *pipeline.ImportRun {
		mu.Lock()
		running++
		if running > maxRunning {
			maxRunning = running
		}
		order = append(order, job.FileName)
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return &pipeline.ImportRun{Success: true}
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var ids []string
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		job := &jobs.ImportInvoiceJob{FileName: name}
		if err := q.PublishImport(context.Background(), job); err != nil {
			t.Fatalf("PublishImport(%s) error = %v", name, err)
		}
		ids = append(ids, job.JobID)
	}

	for _, id := range ids {
		waitForStatus(t, store, id, jobs.JobStatusCompleted)
	}

	mu.Lock()
	defer mu.Unlock()
	if maxRunning != 1 {
		t.Errorf("max concurrent jobs = %d, want 1", maxRunning)
	}
	if len(order) != 3 || order[0] != "a.pdf" || order[1] != "b.pdf" || order[2] != "c.pdf" {
		t.Errorf("processing order = %v", order)
	}
}

func TestQueueStopWaitsForInFlightJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)

	started := make(chan struct{})
	var mu sync.Mutex
	finished := false

	handler := func(ctx context.Context, job *jobs.ImportInvoiceJob) *pipeline.ImportRun {
		close(started)
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		finished = true
		mu.Unlock()
		return &pipeline.ImportRun{Success: true}
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.ImportInvoiceJob{FileName: "inflight.pdf"}
	if err := q.PublishImport(context.Background(), job); err != nil {
		t.Fatalf("PublishImport() error = %v", err)
	}
	<-started

	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !finished {
		t.Error("Stop() returned before the in-flight job finished")
	}
}

func TestQueueRejectsPublishAfterClose(t *testing.T) {
	q := NewQueue(1, NewStore())
	if err := q.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	err := q.PublishImport(context.Background(), &jobs.ImportInvoiceJob{FileName: "late.pdf"})
	if err == nil {
		t.Fatal("PublishImport() after Close succeeded, want error")
	}
}

func TestStoreListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Date(2025, 12, 12, 9, 0, 0, 0, time.UTC)
	seed := []*jobs.ImportInvoiceJob{
		{JobID: "1", Status: jobs.JobStatusCompleted, CreatedAt: base},
		{JobID: "2", Status: jobs.JobStatusFailed, CreatedAt: base.Add(time.Minute)},
		{JobID: "3", Status: jobs.JobStatusCompleted, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob(%s) error = %v", j.JobID, err)
		}
	}

	all, err := store.ListJobs(ctx, jobs.JobFilter{})
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(all) != 3 || all[0].JobID != "3" || all[2].JobID != "1" {
		t.Errorf("ListJobs() order = %v", jobIDs(all))
	}

	completed, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted, Limit: 1})
	if err != nil {
		t.Fatalf("ListJobs(filtered) error = %v", err)
	}
	if len(completed) != 1 || completed[0].JobID != "3" {
		t.Errorf("ListJobs(filtered) = %v", jobIDs(completed))
	}

	if _, err := store.GetJob(ctx, "missing"); err == nil {
		t.Error("GetJob(missing) succeeded, want error")
	}
	if err := store.SaveJob(ctx, &jobs.ImportInvoiceJob{}); err == nil {
		t.Error("SaveJob without ID succeeded, want error")
	}
}

func jobIDs(list []*jobs.ImportInvoiceJob) []string {
	ids := make([]string, 0, len(list))
	for _, j := range list {
		ids = append(ids, j.JobID)
	}
	return ids
}
