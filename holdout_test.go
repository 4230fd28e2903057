package functime

import (
	"errors"
	"fmt"
	"testing"

	"github.com/christian-hnz/functime/pkg/frame"
)

func TestNewHoldoutSplitterValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		testSize any
		wantErr  error
	}{
		{"int count", 3, nil},
		{"zero count", 0, nil},
		{"int64 count", int64(3), nil},
		{"uint count", uint(2), nil},
		{"fraction", 0.25, nil},
		{"zero fraction", 0.0, nil},
		{"full fraction", 1.0, nil},
		{"float32 fraction", float32(0.5), nil},
		{"fraction above one", 1.5, ErrInvalidParameter},
		{"negative fraction", -0.25, ErrInvalidParameter},
		{"negative count", -1, ErrInvalidParameter},
		{"string", "x", ErrInvalidParameter},
		{"nil", nil, ErrInvalidParameter},
		{"bool", true, ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewHoldoutSplitter(tt.testSize, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewHoldoutSplitter(%v) error = %v, want %v", tt.testSize, err, tt.wantErr)
			}
		})
	}
}

func TestHoldoutCoverage(t *testing.T) {
	t.Parallel()
	entities := []entitySpec{{"a", 10}, {"b", 7}, {"c", 4}}
	data := newTestPanel(t, entities...)

	splitter, err := NewHoldoutSplitter(3, nil)
	if err != nil {
		t.Fatalf("NewHoldoutSplitter() error = %v", err)
	}
	split, err := splitter.Split(data.Lazy())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	train, test := collectSplit(t, *split)

	for _, e := range entities {
		trainSteps := entitySteps(t, train, e.id)
		testSteps := entitySteps(t, test, e.id)

		if len(trainSteps)+len(testSteps) != e.rows {
			t.Errorf("entity %s: train %d + test %d != %d rows",
				e.id, len(trainSteps), len(testSteps), e.rows)
		}
		// Concatenating train then test must reproduce the entity's
		// original order, with the test segment being the last 3 rows.
		assertStepsEqual(t, trainSteps, seq(0, e.rows-3), "entity "+e.id+" train")
		assertStepsEqual(t, testSteps, seq(e.rows-3, e.rows), "entity "+e.id+" test")
	}
}

func TestHoldoutFractionRounding(t *testing.T) {
	t.Parallel()
	data := newTestPanel(t, entitySpec{"a", 10})

	splitter, err := NewHoldoutSplitter(0.25, nil)
	if err != nil {
		t.Fatalf("NewHoldoutSplitter() error = %v", err)
	}
	split, err := splitter.Split(data.Lazy())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	train, test := collectSplit(t, *split)

	// floor(10 * 0.75) = 7 train rows, the remaining 3 are test rows.
	assertStepsEqual(t, entitySteps(t, train, "a"), seq(0, 7), "train")
	assertStepsEqual(t, entitySteps(t, test, "a"), seq(7, 10), "test")
}

func TestHoldoutFractionPerEntityLength(t *testing.T) {
	t.Parallel()
	data := newTestPanel(t, entitySpec{"a", 10}, entitySpec{"b", 4})

	splitter, err := NewHoldoutSplitter(0.25, nil)
	if err != nil {
		t.Fatalf("NewHoldoutSplitter() error = %v", err)
	}
	split, err := splitter.Split(data.Lazy())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	train, test := collectSplit(t, *split)

	// Each entity is sized by its own row count: floor(4*0.75) = 3.
	assertStepsEqual(t, entitySteps(t, train, "b"), seq(0, 3), "entity b train")
	assertStepsEqual(t, entitySteps(t, test, "b"), seq(3, 4), "entity b test")
	assertStepsEqual(t, entitySteps(t, train, "a"), seq(0, 7), "entity a train")
}

func TestHoldoutInsufficientData(t *testing.T) {
	t.Parallel()
	data := newTestPanel(t, entitySpec{"a", 10}, entitySpec{"b", 4})

	splitter, err := NewHoldoutSplitter(5, nil)
	if err != nil {
		t.Fatalf("NewHoldoutSplitter() error = %v", err)
	}
	if _, err := splitter.Split(data.Lazy()); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Split() error = %v, want ErrInsufficientData", err)
	}

	// A test size equal to the smallest entity is the boundary and fits:
	// the smallest entity simply keeps no training rows.
	boundary, err := NewHoldoutSplitter(4, nil)
	if err != nil {
		t.Fatalf("NewHoldoutSplitter() error = %v", err)
	}
	split, err := boundary.Split(data.Lazy())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	train, test := collectSplit(t, *split)
	if got := len(entitySteps(t, train, "b")); got != 0 {
		t.Errorf("entity b has %d train rows, want 0", got)
	}
	assertStepsEqual(t, entitySteps(t, test, "b"), seq(0, 4), "entity b test")
}

func TestHoldoutZeroTestSize(t *testing.T) {
	t.Parallel()
	data := newTestPanel(t, entitySpec{"a", 5})

	splitter, err := NewHoldoutSplitter(0, nil)
	if err != nil {
		t.Fatalf("NewHoldoutSplitter() error = %v", err)
	}
	split, err := splitter.Split(data.Lazy())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	train, test := collectSplit(t, *split)
	if train.NumRows() != 5 || test.NumRows() != 0 {
		t.Errorf("got train=%d test=%d, want train=5 test=0", train.NumRows(), test.NumRows())
	}
}

func TestHoldoutFullFraction(t *testing.T) {
	t.Parallel()
	data := newTestPanel(t, entitySpec{"a", 5})

	splitter, err := NewHoldoutSplitter(1.0, nil)
	if err != nil {
		t.Fatalf("NewHoldoutSplitter() error = %v", err)
	}
	split, err := splitter.Split(data.Lazy())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	train, test := collectSplit(t, *split)
	if train.NumRows() != 0 || test.NumRows() != 5 {
		t.Errorf("got train=%d test=%d, want train=0 test=5", train.NumRows(), test.NumRows())
	}
}

func TestHoldoutEmptyDatasetPropagates(t *testing.T) {
	t.Parallel()
	empty, err := frame.New(frame.Series{Name: "entity"}, frame.Series{Name: "value"})
	if err != nil {
		t.Fatalf("frame.New() error = %v", err)
	}

	for _, testSize := range []any{3, 0.25} {
		t.Run(fmt.Sprintf("%v", testSize), func(t *testing.T) {
			splitter, err := NewHoldoutSplitter(testSize, nil)
			if err != nil {
				t.Fatalf("NewHoldoutSplitter() error = %v", err)
			}
			if _, err := splitter.Split(empty.Lazy()); !errors.Is(err, frame.ErrEmptyFrame) {
				t.Errorf("Split() error = %v, want frame.ErrEmptyFrame", err)
			}
		})
	}
}

func TestHoldoutFoldsSingleFold(t *testing.T) {
	t.Parallel()
	data := newTestPanel(t, entitySpec{"a", 8})

	splitter, err := NewHoldoutSplitter(2, nil)
	if err != nil {
		t.Fatalf("NewHoldoutSplitter() error = %v", err)
	}
	folds, err := splitter.Folds(data.Lazy())
	if err != nil {
		t.Fatalf("Folds() error = %v", err)
	}
	if len(folds) != 1 {
		t.Fatalf("got %d folds, want 1", len(folds))
	}

	split, err := splitter.Split(data.Lazy())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	foldTrain, foldTest := collectSplit(t, folds[0])
	train, test := collectSplit(t, *split)
	if !foldTrain.Equal(train) || !foldTest.Equal(test) {
		t.Error("Folds() result differs from Split()")
	}
}
