// Package handlers implements the HTTP endpoints of the invoice import API.
package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/PremSaiBollamoni/tallybridge/internal/api/middleware"
	"github.com/PremSaiBollamoni/tallybridge/internal/jobs"
	"github.com/PremSaiBollamoni/tallybridge/internal/report"
	"github.com/PremSaiBollamoni/tallybridge/internal/store"
)

// allowedExtensions lists the upload types the extractor can handle.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// maxUploadBytes caps one multipart upload request.
const maxUploadBytes = 64 << 20

// UploadHandler accepts invoice files and enqueues import jobs.
type UploadHandler struct {
	uploadDir string
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewUploadHandler creates a new upload handler saving files under uploadDir.
func NewUploadHandler(uploadDir string, publisher jobs.Publisher, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		uploadDir: uploadDir,
		publisher: publisher,
		log:       log,
	}
}

type acceptedUpload struct {
	JobID    string `json:"job_id"`
	FileName string `json:"file_name"`
}

type rejectedUpload struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

// Upload handles POST /api/upload. It accepts one or more files under the
// "files" multipart field, saves each valid one and enqueues an import job
// per file. Files with unsupported extensions are rejected individually
// without failing the batch.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		// Single-file clients use "file".
		fileHeaders = r.MultipartForm.File["file"]
	}
	if len(fileHeaders) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No files provided")
		return
	}

	accepted := make([]acceptedUpload, 0, len(fileHeaders))
	rejected := make([]rejectedUpload, 0)

	for _, fh := range fileHeaders {
		name := filepath.Base(fh.Filename)
		ext := strings.ToLower(filepath.Ext(name))
		if !allowedExtensions[ext] {
			rejected = append(rejected, rejectedUpload{FileName: name, Reason: "Unsupported file type"})
			continue
		}

		savedPath, err := h.saveUpload(fh, ext)
		if err != nil {
			h.log.Error().Err(err).Str("file", name).Msg("Failed to save upload")
			rejected = append(rejected, rejectedUpload{FileName: name, Reason: "Failed to save file"})
			continue
		}

		job := &jobs.ImportInvoiceJob{FileName: name, FilePath: savedPath}
		if err := h.publisher.PublishImport(ctx, job); err != nil {
			h.log.Error().Err(err).Str("file", name).Msg("Failed to enqueue import job")
			rejected = append(rejected, rejectedUpload{FileName: name, Reason: "Failed to enqueue job"})
			continue
		}

		h.log.Info().Str("job_id", job.JobID).Str("file", name).Msg("Import job enqueued")
		accepted = append(accepted, acceptedUpload{JobID: job.JobID, FileName: name})
	}

	if len(accepted) == 0 {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    "No valid files in upload",
			"rejected": rejected,
		})
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted": accepted,
		"rejected": rejected,
		"total":    len(fileHeaders),
	})
}

// saveUpload copies one multipart file into the upload directory under a
// unique name, so concurrent uploads of equally named files cannot clobber
// each other.
func (h *UploadHandler) saveUpload(fh *multipart.FileHeader, ext string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(h.uploadDir, uuid.New().String()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return path, nil
}

// Prober checks whether the Tally gateway answers.
type Prober interface {
	Probe(ctx context.Context) error
}

// TallyHandler exposes gateway diagnostics.
type TallyHandler struct {
	prober Prober
	log    zerolog.Logger
}

// NewTallyHandler creates a new Tally diagnostics handler.
func NewTallyHandler(prober Prober, log zerolog.Logger) *TallyHandler {
	return &TallyHandler{prober: prober, log: log}
}

// TestConnection handles GET /api/test-connection.
func (h *TallyHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.prober.Probe(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Tally connection test failed")
		middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unreachable",
			"error":  err.Error(),
		})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "connected",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// HistoryHandler serves persisted run artifacts.
type HistoryHandler struct {
	results *store.Store
	log     zerolog.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(results *store.Store, log zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{results: results, log: log}
}

// History handles GET /api/history.
func (h *HistoryHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.results.History()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list history")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list history")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"history": entries,
		"count":   len(entries),
	})
}

// Download handles GET /api/download/{file}. Only bare filenames inside the
// results directory are served.
func (h *HistoryHandler) Download(w http.ResponseWriter, r *http.Request, name string) {
	data, err := h.results.Read(name)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "File not found")
		return
	}

	contentType := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		contentType = "application/json"
	case ".xml":
		contentType = "application/xml"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}

// Report handles GET /api/report, streaming the import history workbook.
func (h *HistoryHandler) Report(w http.ResponseWriter, r *http.Request) {
	entries, err := h.results.History()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list history for report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}

	f, err := report.Build(entries)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build report workbook")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="import_history.xlsx"`)
	if err := f.Write(w); err != nil {
		h.log.Error().Err(err).Msg("Failed to stream report")
	}
}

// JobsHandler handles job status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
