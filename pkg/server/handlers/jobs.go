package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/christian-hnz/functime/pkg/dataset"
	"github.com/christian-hnz/functime/pkg/jobs"
	"github.com/christian-hnz/functime/pkg/parallel"
	"github.com/christian-hnz/functime/pkg/server/dto"
	"github.com/christian-hnz/functime/pkg/telemetry"
)

// JobsHandler handles asynchronous split jobs
type JobsHandler struct {
	store     *jobs.Store
	fetcher   *dataset.Fetcher
	outputDir string
	format    string
	logger    *slog.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(store *jobs.Store, fetcher *dataset.Fetcher, outputDir, format string, logger *slog.Logger) *JobsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if format == "" {
		format = dataset.FormatParquet
	}
	return &JobsHandler{
		store:     store,
		fetcher:   fetcher,
		outputDir: outputDir,
		format:    format,
		logger:    logger,
	}
}

// Submit handles POST /jobs/split
func (h *JobsHandler) Submit(c *gin.Context) {
	var req dto.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "jobs_disabled", Message: "job store is not configured"})
		return
	}

	raw, err := json.Marshal(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "submit_failed", Message: err.Error()})
		return
	}

	record := &jobs.Record{
		ID:       uuid.New().String(),
		Splitter: req.Splitter,
		Status:   jobs.StatusPending,
		Request:  raw,
	}
	if err := h.store.Save(c.Request.Context(), record); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "submit_failed", Message: err.Error()})
		return
	}

	// Run the split in the background with panic recovery
	parallel.SafeGo(func() {
		h.process(record.ID, req)
	}, func(err error) {
		h.fail(telemetry.WithSource(context.Background(), "job"), record.ID, err)
	})

	c.JSON(http.StatusAccepted, dto.JobResponse{
		Success: true,
		JobID:   record.ID,
		Message: fmt.Sprintf("Queued %s split job", req.Splitter),
	})
}

// process runs a submitted job to completion
func (h *JobsHandler) process(jobID string, req dto.JobRequest) {
	ctx := telemetry.WithSource(context.Background(), "job")

	start := time.Now()
	if err := h.store.UpdateStatus(ctx, jobID, jobs.StatusRunning); err != nil {
		h.logger.Error("failed to mark job running", "job_id", jobID, "error", err)
		return
	}

	data, err := resolveFrame(ctx, h.fetcher, &req.SplitRequest)
	if err != nil {
		h.fail(ctx, jobID, err)
		return
	}

	folds, err := executeSplit(ctx, req.Splitter, &req.SplitRequest, data)
	if err != nil {
		h.fail(ctx, jobID, err)
		return
	}

	outputs, err := h.writeFolds(jobID, folds)
	if err != nil {
		h.fail(ctx, jobID, err)
		return
	}

	if err := h.store.Complete(ctx, jobID, outputs); err != nil {
		h.logger.Error("failed to mark job completed", "job_id", jobID, "error", err)
		return
	}

	h.logger.InfoContext(ctx, "split job complete",
		"operation", "job",
		"splitter", req.Splitter,
		"job_id", jobID,
		"entities", countEntities(data),
		"folds", len(folds),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
}

func (h *JobsHandler) fail(ctx context.Context, jobID string, jobErr error) {
	h.logger.ErrorContext(ctx, "split job failed", "job_id", jobID, "error", jobErr)
	if err := h.store.RecordError(ctx, jobID, jobErr); err != nil {
		h.logger.Error("failed to record job error", "job_id", jobID, "error", err)
	}
}

// writeFolds persists every fold under outputDir/jobID and returns the
// written file paths
func (h *JobsHandler) writeFolds(jobID string, folds []foldFrames) ([]string, error) {
	dir := filepath.Join(h.outputDir, jobID)

	var outputs []string
	for i, fold := range folds {
		trainPath := filepath.Join(dir, fmt.Sprintf("fold_%d_train.%s", i, h.format))
		if err := dataset.WriteFile(trainPath, fold.train); err != nil {
			return nil, fmt.Errorf("fold %d train: %w", i, err)
		}
		outputs = append(outputs, trainPath)

		testPath := filepath.Join(dir, fmt.Sprintf("fold_%d_test.%s", i, h.format))
		if err := dataset.WriteFile(testPath, fold.test); err != nil {
			return nil, fmt.Errorf("fold %d test: %w", i, err)
		}
		outputs = append(outputs, testPath)
	}
	return outputs, nil
}

// Status handles GET /jobs/:id
func (h *JobsHandler) Status(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "jobs_disabled", Message: "job store is not configured"})
		return
	}

	id := c.Param("id")
	record, err := h.store.Load(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "lookup_failed", Message: err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: fmt.Sprintf("job %s does not exist", id)})
		return
	}

	c.JSON(http.StatusOK, record)
}

// List handles GET /jobs
func (h *JobsHandler) List(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "jobs_disabled", Message: "job store is not configured"})
		return
	}

	records, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "lookup_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(records),
		"jobs":  records,
	})
}
