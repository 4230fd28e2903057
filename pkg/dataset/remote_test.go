package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "entity,timestamp,value\n" +
	"a,2024-03-01T00:00:00Z,1.5\n" +
	"a,2024-03-02T00:00:00Z,2.5\n" +
	"b,2024-03-01T00:00:00Z,10\n"

func TestFetchCSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{}, nil)
	f, err := fetcher.Fetch(context.Background(), server.URL+"/panel.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, f.NumRows())
	assert.Equal(t, []string{"entity", "timestamp", "value"}, f.Columns())
}

func TestFetchParquet(t *testing.T) {
	rows := sampleRows()
	src, err := ToFrame(rows)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "panel.parquet")
	require.NoError(t, WriteParquet(path, src))
	payload, err := os.ReadFile(path)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{}, nil)
	f, err := fetcher.Fetch(context.Background(), server.URL+"/panel.parquet")
	require.NoError(t, err)
	assert.Equal(t, len(rows), f.NumRows())
}

func TestFetchBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{}, nil)
	_, err := fetcher.Fetch(context.Background(), server.URL+"/panel.csv")
	assert.ErrorContains(t, err, "unexpected status")
}

func TestFetchSizeCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{MaxBytes: 16}, nil)
	_, err := fetcher.Fetch(context.Background(), server.URL+"/panel.csv")
	assert.ErrorContains(t, err, "exceeds")
}

func TestFetcherBreakerTrips(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{}, nil)
	for i := 0; i < 3; i++ {
		_, err := fetcher.Fetch(context.Background(), server.URL+"/panel.csv")
		require.Error(t, err)
	}

	// The breaker is open now: the next request fails without reaching
	// the server.
	_, err := fetcher.Fetch(context.Background(), server.URL+"/panel.csv")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), hits.Load())
}
