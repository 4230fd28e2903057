package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/christian-hnz/functime/pkg/dataset"
	"github.com/christian-hnz/functime/pkg/jobs"
	"github.com/christian-hnz/functime/pkg/server/dto"
)

func newJobsRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := jobs.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open job store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	outputDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewJobsHandler(store, nil, outputDir, "parquet", logger)

	router := gin.New()
	router.POST("/api/v1/jobs/split", handler.Submit)
	router.GET("/api/v1/jobs", handler.List)
	router.GET("/api/v1/jobs/:id", handler.Status)
	return router, outputDir
}

func getJob(t *testing.T, router *gin.Engine, id string) (int, *jobs.Record) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+id, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		return w.Code, nil
	}
	var record jobs.Record
	if err := json.NewDecoder(w.Body).Decode(&record); err != nil {
		t.Fatalf("failed to decode job record: %v", err)
	}
	return w.Code, &record
}

// waitForJob polls the status endpoint until the job leaves the pending
// and running states
func waitForJob(t *testing.T, router *gin.Engine, id string) *jobs.Record {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		code, record := getJob(t, router, id)
		if code != http.StatusOK {
			t.Fatalf("unexpected status %d while polling job %s", code, id)
		}
		if record.Status == jobs.StatusCompleted || record.Status == jobs.StatusFailed {
			return record
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", id)
	return nil
}

func submitJob(t *testing.T, router *gin.Engine, body interface{}) dto.JobResponse {
	t.Helper()
	w := postJSON(t, router, "/api/v1/jobs/split", body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp dto.JobResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode job response: %v", err)
	}
	if resp.JobID == "" {
		t.Fatal("expected a job_id in the response")
	}
	return resp
}

func TestJobSubmitAndComplete(t *testing.T) {
	router, outputDir := newJobsRouter(t)

	rows := append(makeRows("a", 10), makeRows("b", 7)...)
	resp := submitJob(t, router, dto.JobRequest{
		Splitter: "holdout",
		SplitRequest: dto.SplitRequest{
			Rows:     rows,
			TestSize: json.Number("2"),
		},
	})

	record := waitForJob(t, router, resp.JobID)
	if record.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed job, got %s (error: %s)", record.Status, record.LastError)
	}
	if record.Splitter != "holdout" {
		t.Errorf("expected splitter holdout, got %s", record.Splitter)
	}
	if len(record.Outputs) != 2 {
		t.Fatalf("expected 2 output files for a holdout job, got %d", len(record.Outputs))
	}

	for _, path := range record.Outputs {
		if !strings.HasPrefix(path, outputDir) {
			t.Errorf("output %s not under %s", path, outputDir)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("output %s not written: %v", path, err)
		}
	}

	// a keeps 8 train rows, b keeps 5
	train, err := dataset.ReadFile(record.Outputs[0])
	if err != nil {
		t.Fatalf("failed to read train fold: %v", err)
	}
	if train.NumRows() != 13 {
		t.Errorf("expected 13 train rows, got %d", train.NumRows())
	}

	test, err := dataset.ReadFile(record.Outputs[1])
	if err != nil {
		t.Fatalf("failed to read test fold: %v", err)
	}
	if test.NumRows() != 4 {
		t.Errorf("expected 4 test rows, got %d", test.NumRows())
	}
}

func TestJobExpandingProducesAllFolds(t *testing.T) {
	router, _ := newJobsRouter(t)

	resp := submitJob(t, router, dto.JobRequest{
		Splitter: "expanding",
		SplitRequest: dto.SplitRequest{
			Rows:     makeRows("a", 10),
			TestSize: json.Number("3"),
			NSplits:  intPtr(5),
			StepSize: intPtr(1),
		},
	})

	record := waitForJob(t, router, resp.JobID)
	if record.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed job, got %s (error: %s)", record.Status, record.LastError)
	}
	if len(record.Outputs) != 10 {
		t.Errorf("expected 10 output files for 5 folds, got %d", len(record.Outputs))
	}
}

func TestJobFailureRecorded(t *testing.T) {
	router, _ := newJobsRouter(t)

	resp := submitJob(t, router, dto.JobRequest{
		Splitter: "holdout",
		SplitRequest: dto.SplitRequest{
			Rows:     makeRows("a", 4),
			TestSize: json.Number("50"),
		},
	})

	record := waitForJob(t, router, resp.JobID)
	if record.Status != jobs.StatusFailed {
		t.Fatalf("expected failed job, got %s", record.Status)
	}
	if !strings.Contains(record.LastError, "insufficient data") {
		t.Errorf("expected insufficient data error, got %q", record.LastError)
	}
	if record.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", record.Attempts)
	}
}

func TestJobSubmitUnknownSplitter(t *testing.T) {
	router, _ := newJobsRouter(t)

	w := postJSON(t, router, "/api/v1/jobs/split", dto.JobRequest{
		Splitter: "quantum",
		SplitRequest: dto.SplitRequest{
			Rows:     makeRows("a", 10),
			TestSize: json.Number("3"),
		},
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestJobStatusNotFound(t *testing.T) {
	router, _ := newJobsRouter(t)

	code, _ := getJob(t, router, "no-such-job")
	if code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", code)
	}
}

func TestJobList(t *testing.T) {
	router, _ := newJobsRouter(t)

	resp := submitJob(t, router, dto.JobRequest{
		Splitter: "holdout",
		SplitRequest: dto.SplitRequest{
			Rows:     makeRows("a", 10),
			TestSize: json.Number("2"),
		},
	})
	waitForJob(t, router, resp.JobID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var listing struct {
		Count int            `json:"count"`
		Jobs  []*jobs.Record `json:"jobs"`
	}
	if err := json.NewDecoder(w.Body).Decode(&listing); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if listing.Count != 1 || len(listing.Jobs) != 1 {
		t.Errorf("expected exactly one job, got count=%d len=%d", listing.Count, len(listing.Jobs))
	}
}
