package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/sony/gobreaker"

	"github.com/christian-hnz/functime/pkg/frame"
)

// DefaultMaxFetchBytes caps how much of a remote dataset Fetch reads.
const DefaultMaxFetchBytes = 128 << 20

// FetcherConfig tunes a Fetcher. The zero value selects a 30 second
// request timeout and DefaultMaxFetchBytes.
type FetcherConfig struct {
	// Timeout bounds each HTTP request.
	Timeout time.Duration
	// MaxBytes caps the size of a fetched dataset.
	MaxBytes int64
}

// Fetcher downloads remote panel datasets over HTTP. Repeated failures
// trip a circuit breaker so a flaky or unreachable host is not hammered
// by every split request that names it.
type Fetcher struct {
	client   *http.Client
	cb       *gobreaker.CircuitBreaker
	maxBytes int64
	logger   *slog.Logger
}

// NewFetcher creates a fetcher. A nil logger falls back to slog.Default.
func NewFetcher(cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxFetchBytes
	}

	st := gobreaker.Settings{
		Name:        "dataset-fetch",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("dataset fetch circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &Fetcher{
		client:   &http.Client{Timeout: cfg.Timeout},
		cb:       gobreaker.NewCircuitBreaker(st),
		maxBytes: cfg.MaxBytes,
		logger:   logger,
	}
}

// Fetch downloads the panel dataset at the given URL. The format is
// picked from the URL path's extension, parquet when there is none.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*frame.Frame, error) {
	result, err := f.cb.Execute(func() (interface{}, error) {
		return f.fetch(ctx, rawURL)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	return result.(*frame.Frame), nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (*frame.Frame, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("bad dataset url %q: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("dataset at %s exceeds %d bytes", rawURL, f.maxBytes)
	}
	f.logger.Debug("fetched remote dataset", "url", rawURL, "bytes", len(body))

	switch strings.TrimPrefix(path.Ext(u.Path), ".") {
	case FormatCSV:
		rows, err := parseCSV(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv dataset: %w", err)
		}
		return ToFrame(rows)
	default:
		rows, err := parquet.Read[Row](bytes.NewReader(body), int64(len(body)))
		if err != nil {
			return nil, fmt.Errorf("failed to parse parquet dataset: %w", err)
		}
		return ToFrame(rows)
	}
}
