package frame

import (
	"fmt"
	"sync"
)

// SliceFunc computes the row range a group contributes, given the group's
// row count n. A negative offset is measured from the end of the group.
// The selected range is the signed window [start, start+length) clipped to
// [0, n): ranges that run outside the group shrink or come back empty,
// they never fail.
type SliceFunc func(n int) (offset, length int)

// groupSlice is one step of a computation plan: partition rows by a key
// column, slice every group, and flatten the remainder back into rows.
type groupSlice struct {
	column string
	slices []SliceFunc
}

// LazyFrame is a deferred computation over a source frame: a plan of
// group-slice steps that is only carried out by Collect. A LazyFrame
// with an empty plan is a materialized result whose Collect is free.
// LazyFrames are immutable; every plan extension returns a new value,
// so a LazyFrame may be shared and collected concurrently.
type LazyFrame struct {
	src  *Frame
	plan []groupSlice
}

// Columns returns the column names of the underlying frame. Plan steps
// never add or remove columns.
func (lf *LazyFrame) Columns() []string {
	return lf.src.Columns()
}

// EntityColumn returns the name of the entity identifier column, which
// is by convention the first column of a panel frame.
func (lf *LazyFrame) EntityColumn() (string, error) {
	if lf.src.NumColumns() == 0 {
		return "", fmt.Errorf("entity column: %w", ErrEmptyFrame)
	}
	return lf.src.Columns()[0], nil
}

// GroupBy partitions the frame's rows by the given key column. Groups
// keep their rows in original order and are themselves ordered by the
// key's first appearance, so grouping is stable and deterministic.
func (lf *LazyFrame) GroupBy(column string) *Grouped {
	return &Grouped{lf: lf, column: column}
}

// Collect evaluates the plan and returns the resulting frame. Collect
// never mutates the lazy frame or its source: it is idempotent and
// repeated calls return equal frames.
func (lf *LazyFrame) Collect() (*Frame, error) {
	out := lf.src
	for _, step := range lf.plan {
		var err error
		out, err = applyGroupSlice(out, step)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CollectAll evaluates a batch of lazy frames concurrently and returns
// the materialized frames in argument order. The first evaluation error
// encountered is returned and the batch result discarded.
func CollectAll(frames ...*LazyFrame) ([]*Frame, error) {
	out := make([]*Frame, len(frames))
	errs := make([]error, len(frames))
	var wg sync.WaitGroup
	for i, lf := range frames {
		wg.Add(1)
		go func(i int, lf *LazyFrame) {
			defer wg.Done()
			out[i], errs[i] = lf.Collect()
		}(i, lf)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Grouped is a grouped view of a lazy frame with zero or more pending
// per-group slice operations. It becomes part of a computation plan once
// Explode is called.
type Grouped struct {
	lf     *LazyFrame
	column string
	slices []SliceFunc
}

// Slice appends a per-group slice operation and returns the extended
// view. Chained slices compose: each one sees the row count left by the
// previous.
func (g *Grouped) Slice(fn SliceFunc) *Grouped {
	slices := make([]SliceFunc, 0, len(g.slices)+1)
	slices = append(slices, g.slices...)
	slices = append(slices, fn)
	return &Grouped{lf: g.lf, column: g.column, slices: slices}
}

// Explode flattens the sliced groups back into a single row sequence,
// preserving group order and intra-group row order, and returns the
// extended computation.
func (g *Grouped) Explode() *LazyFrame {
	plan := make([]groupSlice, 0, len(g.lf.plan)+1)
	plan = append(plan, g.lf.plan...)
	plan = append(plan, groupSlice{column: g.column, slices: g.slices})
	return &LazyFrame{src: g.lf.src, plan: plan}
}

// RowCounts evaluates any pending plan steps and returns the row count
// per group key. A frame with no rows yields ErrEmptyFrame.
func (g *Grouped) RowCounts() (map[any]int, error) {
	f, err := g.lf.Collect()
	if err != nil {
		return nil, err
	}
	if f.NumRows() == 0 {
		return nil, fmt.Errorf("row counts by %q: %w", g.column, ErrEmptyFrame)
	}
	key, err := f.Column(g.column)
	if err != nil {
		return nil, err
	}
	counts := make(map[any]int)
	for _, v := range key.Values {
		counts[v]++
	}
	return counts, nil
}

// applyGroupSlice runs one plan step over a materialized frame.
func applyGroupSlice(f *Frame, step groupSlice) (*Frame, error) {
	key, err := f.Column(step.column)
	if err != nil {
		return nil, fmt.Errorf("group by: %w", err)
	}

	var order []any
	groups := make(map[any][]int)
	for i, v := range key.Values {
		if _, seen := groups[v]; !seen {
			order = append(order, v)
		}
		groups[v] = append(groups[v], i)
	}

	kept := make([]int, 0, f.NumRows())
	for _, k := range order {
		indices := groups[k]
		for _, fn := range step.slices {
			offset, length := fn(len(indices))
			start, stop := sliceBounds(offset, length, len(indices))
			indices = indices[start:stop]
		}
		kept = append(kept, indices...)
	}
	return f.takeRows(kept), nil
}

// sliceBounds resolves a signed (offset, length) request against a group
// of n rows. A negative offset counts from the end; start and stop are
// clipped independently to [0, n], so out-of-range requests truncate
// instead of failing and non-positive lengths come back empty.
func sliceBounds(offset, length, n int) (start, stop int) {
	start = offset
	if start < 0 {
		start += n
	}
	stop = start + length
	if start < 0 {
		start = 0
	} else if start > n {
		start = n
	}
	if stop < 0 {
		stop = 0
	} else if stop > n {
		stop = n
	}
	if stop < start {
		stop = start
	}
	return start, stop
}
