package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/christian-hnz/functime"
	"github.com/christian-hnz/functime/pkg/dataset"
	"github.com/christian-hnz/functime/pkg/frame"
	"github.com/christian-hnz/functime/pkg/parallel"
	"github.com/christian-hnz/functime/pkg/server/dto"
)

// SplitHandler handles synchronous split requests
type SplitHandler struct {
	fetcher *dataset.Fetcher
	logger  *slog.Logger
}

// NewSplitHandler creates a new split handler
func NewSplitHandler(fetcher *dataset.Fetcher, logger *slog.Logger) *SplitHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SplitHandler{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Holdout handles POST /split/holdout
func (h *SplitHandler) Holdout(c *gin.Context) {
	h.run(c, "holdout")
}

// Expanding handles POST /split/expanding
func (h *SplitHandler) Expanding(c *gin.Context) {
	h.run(c, "expanding")
}

// Sliding handles POST /split/sliding
func (h *SplitHandler) Sliding(c *gin.Context) {
	h.run(c, "sliding")
}

func (h *SplitHandler) run(c *gin.Context, splitterName string) {
	var req dto.SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	ctx := c.Request.Context()
	start := time.Now()

	data, err := resolveFrame(ctx, h.fetcher, &req)
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "fetch_failed", Message: err.Error()})
		return
	}

	folds, err := executeSplit(ctx, splitterName, &req, data)
	if err != nil {
		h.logger.WarnContext(ctx, "split request failed", "splitter", splitterName, "error", err)
		splitError(c, err)
		return
	}

	resp, err := foldPayloads(splitterName, folds)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "split_failed", Message: err.Error()})
		return
	}
	resp.DurationMs = float64(time.Since(start).Microseconds()) / 1000.0

	h.logger.InfoContext(ctx, "split complete",
		"operation", "split",
		"splitter", splitterName,
		"entities", countEntities(data),
		"folds", len(resp.Folds),
		"duration_ms", resp.DurationMs,
	)

	c.JSON(http.StatusOK, resp)
}

// splitError maps splitting errors to HTTP status codes
func splitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, functime.ErrInvalidParameter), errors.Is(err, dto.ErrUnknownSplitter):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_parameter", Message: err.Error()})
	case errors.Is(err, functime.ErrInsufficientData):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "insufficient_data", Message: err.Error()})
	case errors.Is(err, frame.ErrEmptyFrame):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "empty_dataset", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "split_failed", Message: err.Error()})
	}
}

// resolveFrame materializes the request data, either from inline rows or
// by fetching the remote source
func resolveFrame(ctx context.Context, fetcher *dataset.Fetcher, req *dto.SplitRequest) (*frame.Frame, error) {
	if len(req.Rows) > 0 {
		return dataset.ToFrame(req.Rows)
	}
	if fetcher == nil {
		return nil, errors.New("remote sources are not configured")
	}
	return fetcher.Fetch(ctx, req.Source)
}

// buildSplitter constructs the splitter named in the request
func buildSplitter(splitterName string, req *dto.SplitRequest) (functime.Splitter, error) {
	size, err := req.TestSizeValue()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", functime.ErrInvalidParameter, err)
	}

	switch splitterName {
	case "holdout":
		return functime.NewHoldoutSplitter(size, &functime.HoldoutOptions{Eager: req.Eager})

	case "expanding":
		testSize, ok := size.(int)
		if !ok {
			return nil, fmt.Errorf("%w: test_size must be an integer for window splitters, got %v", functime.ErrInvalidParameter, size)
		}
		opts := &functime.WindowOptions{
			NSplits:  functime.DefaultNSplits,
			StepSize: functime.DefaultStepSize,
			Eager:    req.Eager,
		}
		if req.NSplits != nil {
			opts.NSplits = *req.NSplits
		}
		if req.StepSize != nil {
			opts.StepSize = *req.StepSize
		}
		return functime.NewExpandingWindowSplitter(testSize, opts), nil

	case "sliding":
		testSize, ok := size.(int)
		if !ok {
			return nil, fmt.Errorf("%w: test_size must be an integer for window splitters, got %v", functime.ErrInvalidParameter, size)
		}
		opts := &functime.SlidingWindowOptions{
			NSplits:    functime.DefaultNSplits,
			StepSize:   functime.DefaultStepSize,
			WindowSize: functime.DefaultWindowSize,
			Eager:      req.Eager,
		}
		if req.NSplits != nil {
			opts.NSplits = *req.NSplits
		}
		if req.StepSize != nil {
			opts.StepSize = *req.StepSize
		}
		if req.WindowSize != nil {
			opts.WindowSize = *req.WindowSize
		}
		return functime.NewSlidingWindowSplitter(testSize, opts), nil

	default:
		return nil, dto.ErrUnknownSplitter
	}
}

// foldFrames holds one collected train/test fold
type foldFrames struct {
	train *frame.Frame
	test  *frame.Frame
}

// executeSplit runs the named splitter over the data and collects every
// fold with a bounded worker pool
func executeSplit(ctx context.Context, splitterName string, req *dto.SplitRequest, data *frame.Frame) ([]foldFrames, error) {
	splitter, err := buildSplitter(splitterName, req)
	if err != nil {
		return nil, err
	}

	splits, err := splitter.Folds(data.Lazy())
	if err != nil {
		return nil, err
	}

	pool := parallel.NewWorkerPool(0, func(ctx context.Context, split functime.Split) (foldFrames, error) {
		train, test, err := split.Collect()
		if err != nil {
			return foldFrames{}, err
		}
		return foldFrames{train: train, test: test}, nil
	})
	folds, errs := pool.ProcessItems(ctx, splits)
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", i, err)
		}
	}
	return folds, nil
}

// foldPayloads converts collected folds into the response shape
func foldPayloads(splitterName string, folds []foldFrames) (*dto.SplitResponse, error) {
	payloads := make([]dto.FoldPayload, 0, len(folds))
	for i, fold := range folds {
		trainRows, err := dataset.FromFrame(fold.train)
		if err != nil {
			return nil, fmt.Errorf("fold %d train: %w", i, err)
		}
		testRows, err := dataset.FromFrame(fold.test)
		if err != nil {
			return nil, fmt.Errorf("fold %d test: %w", i, err)
		}
		payloads = append(payloads, dto.FoldPayload{
			Fold:      i,
			TrainRows: len(trainRows),
			TestRows:  len(testRows),
			Train:     trainRows,
			Test:      testRows,
		})
	}
	return &dto.SplitResponse{Splitter: splitterName, Folds: payloads}, nil
}

// countEntities returns the number of distinct entities in the frame
func countEntities(f *frame.Frame) int {
	cols := f.Columns()
	if len(cols) == 0 {
		return 0
	}
	entity, err := f.Column(cols[0])
	if err != nil {
		return 0
	}
	seen := make(map[any]struct{})
	for _, v := range entity.Values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
