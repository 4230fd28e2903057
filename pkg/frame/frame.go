// Package frame provides the in-memory panel frame the splitters operate
// on: ordered named columns sharing one row count, grouped and sliced per
// entity through a deferred computation plan. By convention the first
// column of a panel frame holds the entity identifier.
package frame

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrColumnNotFound indicates a referenced column does not exist.
	ErrColumnNotFound = errors.New("column not found")

	// ErrLengthMismatch indicates the series of a frame disagree on row count.
	ErrLengthMismatch = errors.New("series length mismatch")

	// ErrEmptyFrame indicates an operation that needs columns or rows was
	// applied to a frame that has none.
	ErrEmptyFrame = errors.New("empty frame")
)

// Series is one named column. Values may hold any comparable Go value;
// rows of the entity column are used as map keys during grouping.
type Series struct {
	Name   string
	Values []any
}

// Frame is an ordered collection of equally long series. Frames are
// treated as immutable once constructed; callers must not mutate the
// underlying value slices while lazy computations over the frame are
// still pending.
type Frame struct {
	series []Series
	rows   int
}

// New builds a frame from the given series. All series must share the
// same length.
func New(series ...Series) (*Frame, error) {
	f := &Frame{series: series}
	if len(series) == 0 {
		return f, nil
	}
	f.rows = len(series[0].Values)
	for _, s := range series[1:] {
		if len(s.Values) != f.rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d",
				ErrLengthMismatch, s.Name, len(s.Values), f.rows)
		}
	}
	return f, nil
}

// NumRows returns the shared row count.
func (f *Frame) NumRows() int {
	return f.rows
}

// NumColumns returns the number of series.
func (f *Frame) NumColumns() int {
	return len(f.series)
}

// Columns returns the column names in declaration order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.series))
	for i, s := range f.series {
		names[i] = s.Name
	}
	return names
}

// Column returns the series with the given name.
func (f *Frame) Column(name string) (*Series, error) {
	for i := range f.series {
		if f.series[i].Name == name {
			return &f.series[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
}

// Lazy wraps the frame in a computation with an empty plan. Collecting
// the result returns the frame itself.
func (f *Frame) Lazy() *LazyFrame {
	return &LazyFrame{src: f}
}

// Equal reports whether two frames hold the same columns with the same
// values in the same order.
func (f *Frame) Equal(other *Frame) bool {
	if other == nil || f.rows != other.rows || len(f.series) != len(other.series) {
		return false
	}
	for i := range f.series {
		if f.series[i].Name != other.series[i].Name {
			return false
		}
		if !reflect.DeepEqual(f.series[i].Values, other.series[i].Values) {
			return false
		}
	}
	return true
}

// takeRows builds a new frame containing the given source rows, in the
// given order.
func (f *Frame) takeRows(indices []int) *Frame {
	out := &Frame{series: make([]Series, len(f.series)), rows: len(indices)}
	for i, s := range f.series {
		values := make([]any, len(indices))
		for j, idx := range indices {
			values[j] = s.Values[idx]
		}
		out.series[i] = Series{Name: s.Name, Values: values}
	}
	return out
}
