package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/christian-hnz/functime/pkg/dataset"
)

// Validation errors
var (
	ErrMissingData     = errors.New("either rows or source must be provided")
	ErrAmbiguousData   = errors.New("rows and source are mutually exclusive")
	ErrTooManyRows     = errors.New("rows count exceeds maximum (1000000)")
	ErrSourceTooLong   = errors.New("source exceeds maximum length (2048)")
	ErrMissingTestSize = errors.New("test_size is required")
	ErrUnknownSplitter = errors.New("unknown splitter: must be holdout, expanding, or sliding")
)

// Request limits to prevent abuse
const (
	MaxRowCount     = 1_000_000
	MaxSourceLength = 2048
)

// ValidSplitters defines acceptable splitter names for job submission
var ValidSplitters = map[string]bool{
	"holdout":   true,
	"expanding": true,
	"sliding":   true,
}

// SplitRequest represents a request to split a panel dataset. The data
// comes either inline as rows or from a remote source URL. TestSize is
// kept as a json.Number so an absolute count (3) and a fraction (0.25)
// stay distinguishable.
type SplitRequest struct {
	Rows       []dataset.Row `json:"rows,omitempty"`
	Source     string        `json:"source,omitempty"`
	TestSize   json.Number   `json:"test_size" binding:"required"`
	NSplits    *int          `json:"n_splits,omitempty"`
	StepSize   *int          `json:"step_size,omitempty"`
	WindowSize *int          `json:"window_size,omitempty"`
	Eager      bool          `json:"eager,omitempty"`
}

// Validate performs validation on SplitRequest
func (r *SplitRequest) Validate() error {
	if len(r.Rows) == 0 && strings.TrimSpace(r.Source) == "" {
		return ErrMissingData
	}
	if len(r.Rows) > 0 && r.Source != "" {
		return ErrAmbiguousData
	}
	if len(r.Rows) > MaxRowCount {
		return ErrTooManyRows
	}
	if len(r.Source) > MaxSourceLength {
		return ErrSourceTooLong
	}
	if r.TestSize == "" {
		return ErrMissingTestSize
	}
	return nil
}

// TestSizeValue returns the test size as an int when the JSON carried an
// integer and as a float64 otherwise.
func (r *SplitRequest) TestSizeValue() (interface{}, error) {
	if r.TestSize == "" {
		return nil, ErrMissingTestSize
	}
	if i, err := r.TestSize.Int64(); err == nil {
		return int(i), nil
	}
	f, err := r.TestSize.Float64()
	if err != nil {
		return nil, fmt.Errorf("test_size is not a number: %w", err)
	}
	return f, nil
}

// JobRequest represents a request to run a split asynchronously
type JobRequest struct {
	Splitter string `json:"splitter" binding:"required"`
	SplitRequest
}

// Validate performs validation on JobRequest
func (r *JobRequest) Validate() error {
	if !ValidSplitters[strings.ToLower(r.Splitter)] {
		return ErrUnknownSplitter
	}
	return r.SplitRequest.Validate()
}

// FoldPayload represents one train/test fold in a split response
type FoldPayload struct {
	Fold      int           `json:"fold"`
	TrainRows int           `json:"train_rows"`
	TestRows  int           `json:"test_rows"`
	Train     []dataset.Row `json:"train"`
	Test      []dataset.Row `json:"test"`
}

// SplitResponse represents a response from split operations
type SplitResponse struct {
	Splitter   string        `json:"splitter"`
	Folds      []FoldPayload `json:"folds"`
	DurationMs float64       `json:"duration_ms"`
}

// JobResponse represents a response from job submission
type JobResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id,omitempty"`
	Message string `json:"message,omitempty"`
}
