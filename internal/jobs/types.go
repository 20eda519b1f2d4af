// Package jobs defines the asynchronous import job model and the queue
// abstractions the API server uses to run imports in the background.
package jobs

import (
	"context"
	"time"

	"github.com/PremSaiBollamoni/tallybridge/internal/pipeline"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the import finished and the voucher was accepted.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the import finished with a failed step.
	JobStatusFailed JobStatus = "failed"
)

// ImportInvoiceJob is one queued invoice import. An import that fails is
// never retried automatically: retrying a voucher import that may already
// have been accepted would post the purchase twice.
type ImportInvoiceJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// FileName is the original name of the uploaded file.
	FileName string `json:"file_name"`

	// FilePath is where the uploaded file was saved for processing.
	FilePath string `json:"file_path"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was enqueued.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job finished (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error summarizes the failure when Status is failed.
	Error string `json:"error,omitempty"`

	// Run holds the full per-step pipeline result once the job finishes.
	Run *pipeline.ImportRun `json:"run,omitempty"`
}

// JobHandler processes one import job and returns its terminal pipeline run.
type JobHandler func(ctx context.Context, job *ImportInvoiceJob) *pipeline.ImportRun

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishImport enqueues an invoice import job.
	PublishImport(ctx context.Context, job *ImportInvoiceJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue, calling the handler for
	// each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for the in-flight job to complete.
	Stop(ctx context.Context) error
}

// JobStore tracks job state so clients can poll import progress.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ImportInvoiceJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ImportInvoiceJob, error)

	// ListJobs retrieves jobs with optional filtering, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ImportInvoiceJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int
}
