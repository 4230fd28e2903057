package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

func TestGetWorkerLimit(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{name: "unset", env: "", want: DefaultWorkerLimit},
		{name: "valid", env: "3", want: 3},
		{name: "not a number", env: "many", want: DefaultWorkerLimit},
		{name: "non-positive", env: "-2", want: DefaultWorkerLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WORKER_LIMIT", tt.env)
			if got := GetWorkerLimit(); got != tt.want {
				t.Errorf("GetWorkerLimit() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWorkerPoolProcessItems(t *testing.T) {
	pool := NewWorkerPool(4, func(ctx context.Context, item int) (int, error) {
		return item * item, nil
	})

	items := []int{1, 2, 3, 4, 5, 6, 7}
	results, errs := pool.ProcessItems(context.Background(), items)

	if len(results) != len(items) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(items))
	}
	for i, item := range items {
		if errs[i] != nil {
			t.Errorf("errs[%d] = %v, want nil", i, errs[i])
		}
		if results[i] != item*item {
			t.Errorf("results[%d] = %d, want %d", i, results[i], item*item)
		}
	}
}

func TestWorkerPoolEmptyItems(t *testing.T) {
	pool := NewWorkerPool(2, func(ctx context.Context, item int) (int, error) {
		return item, nil
	})

	results, errs := pool.ProcessItems(context.Background(), nil)
	if results != nil || errs != nil {
		t.Errorf("ProcessItems(nil) = (%v, %v), want (nil, nil)", results, errs)
	}
}

func TestWorkerPoolCollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	pool := NewWorkerPool(2, func(ctx context.Context, item int) (int, error) {
		if item%2 == 0 {
			return 0, fmt.Errorf("item %d: %w", item, boom)
		}
		return item, nil
	})

	_, errs := pool.ProcessItems(context.Background(), []int{0, 1, 2, 3})

	for i, err := range errs {
		if i%2 == 0 && !errors.Is(err, boom) {
			t.Errorf("errs[%d] = %v, want wrapped boom", i, err)
		}
		if i%2 == 1 && err != nil {
			t.Errorf("errs[%d] = %v, want nil", i, err)
		}
	}
}

func TestWorkerPoolRecoversPanics(t *testing.T) {
	pool := NewWorkerPool(3, func(ctx context.Context, item int) (int, error) {
		if item == 2 {
			panic("worker panic")
		}
		return item, nil
	})

	results, errs := pool.ProcessItems(context.Background(), []int{0, 1, 2, 3})

	var panicErr *PanicError
	if !errors.As(errs[2], &panicErr) {
		t.Fatalf("errs[2] = %v, want PanicError", errs[2])
	}
	for _, i := range []int{0, 1, 3} {
		if errs[i] != nil {
			t.Errorf("errs[%d] = %v, want nil", i, errs[i])
		}
		if results[i] != i {
			t.Errorf("results[%d] = %d, want %d", i, results[i], i)
		}
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	var active, peak atomic.Int32

	pool := NewWorkerPool(2, func(ctx context.Context, item int) (int, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer active.Add(-1)
		return item, nil
	})

	pool.ProcessItems(context.Background(), []int{1, 2, 3, 4, 5, 6})

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrent workers = %d, want at most 2", got)
	}
}
