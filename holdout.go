package functime

import (
	"fmt"
	"math"

	"github.com/christian-hnz/functime/pkg/frame"
)

// HoldoutOptions tunes a HoldoutSplitter. A nil value is equivalent to
// the zero value: lazy evaluation.
type HoldoutOptions struct {
	// Eager materializes both outputs before Split returns.
	Eager bool
}

// HoldoutSplitter cuts each entity's series into a leading train segment
// and a trailing test segment. The test segment is sized either by an
// absolute row count, identical for every entity, or by a fraction of
// each entity's own row count.
type HoldoutSplitter struct {
	testRows     int
	testFraction float64
	fractional   bool
	eager        bool
}

var _ Splitter = (*HoldoutSplitter)(nil)

// NewHoldoutSplitter builds a holdout splitter. testSize is either an
// integer (the absolute number of test rows per entity) or a float in
// [0, 1] (the fraction of each entity's rows assigned to the test
// segment). Any other type, a negative count, or a fraction outside
// [0, 1] fails with ErrInvalidParameter.
func NewHoldoutSplitter(testSize any, opts *HoldoutOptions) (*HoldoutSplitter, error) {
	s := &HoldoutSplitter{}
	if opts != nil {
		s.eager = opts.Eager
	}

	switch v := testSize.(type) {
	case int:
		s.testRows = v
	case int8:
		s.testRows = int(v)
	case int16:
		s.testRows = int(v)
	case int32:
		s.testRows = int(v)
	case int64:
		s.testRows = int(v)
	case uint:
		s.testRows = int(v)
	case uint8:
		s.testRows = int(v)
	case uint16:
		s.testRows = int(v)
	case uint32:
		s.testRows = int(v)
	case float32:
		s.fractional = true
		s.testFraction = float64(v)
	case float64:
		s.fractional = true
		s.testFraction = v
	default:
		return nil, fmt.Errorf("%w: test_size must be an int or a float, got %T", ErrInvalidParameter, testSize)
	}

	if s.fractional {
		if s.testFraction < 0 || s.testFraction > 1 {
			return nil, fmt.Errorf("%w: test_size must be between 0 and 1, got %v", ErrInvalidParameter, s.testFraction)
		}
	} else if s.testRows < 0 {
		return nil, fmt.Errorf("%w: test_size must not be negative, got %d", ErrInvalidParameter, s.testRows)
	}
	return s, nil
}

// Split applies the splitter to a panel dataset and returns the single
// train/test pair. With an absolute test size, Split fails with
// ErrInsufficientData when the smallest entity holds fewer rows than
// requested; fractional sizes always fit.
func (s *HoldoutSplitter) Split(data *frame.LazyFrame) (*Split, error) {
	entity, err := data.EntityColumn()
	if err != nil {
		return nil, err
	}

	counts, err := data.GroupBy(entity).RowCounts()
	if err != nil {
		return nil, err
	}
	if !s.fractional {
		smallest := -1
		for _, c := range counts {
			if smallest < 0 || c < smallest {
				smallest = c
			}
		}
		if s.testRows > smallest {
			return nil, fmt.Errorf("%w: test_size %d exceeds the smallest entity's %d rows",
				ErrInsufficientData, s.testRows, smallest)
		}
	}

	train := data.GroupBy(entity).
		Slice(func(n int) (int, int) { return 0, s.trainLength(n) }).
		Explode()
	test := data.GroupBy(entity).
		Slice(func(n int) (int, int) {
			trainLen := s.trainLength(n)
			return trainLen, n - trainLen
		}).
		Explode()

	if s.eager {
		frames, err := frame.CollectAll(train, test)
		if err != nil {
			return nil, err
		}
		train, test = frames[0].Lazy(), frames[1].Lazy()
	}
	return &Split{Train: train, Test: test}, nil
}

// Folds implements Splitter. The holdout strategy yields a single fold.
func (s *HoldoutSplitter) Folds(data *frame.LazyFrame) ([]Split, error) {
	split, err := s.Split(data)
	if err != nil {
		return nil, err
	}
	return []Split{*split}, nil
}

// trainLength is the number of leading rows an entity with n rows keeps
// for training; the rest of the entity is the test segment.
func (s *HoldoutSplitter) trainLength(n int) int {
	if s.fractional {
		return int(math.Floor(float64(n) * (1 - s.testFraction)))
	}
	return n - s.testRows
}
