package functime

import "github.com/christian-hnz/functime/pkg/frame"

// WindowOptions tunes the windowed splitters. A nil value selects the
// defaults: DefaultNSplits folds, DefaultStepSize rows between folds,
// lazy evaluation. A non-nil value is taken literally, so an explicit
// StepSize of 0 (every fold ends at the same row) is respected.
type WindowOptions struct {
	// NSplits is the number of folds.
	NSplits int
	// StepSize is the number of rows between consecutive folds' test
	// ranges.
	StepSize int
	// Eager materializes every fold before Folds returns.
	Eager bool
}

// ExpandingWindowSplitter produces folds whose training range always
// starts at an entity's first row and grows with the fold index, while a
// fixed-size test range walks toward the end of the series. On an entity
// with 8 rows, testSize 2, 3 folds and step 1:
//
//	fold 0: o o o o x x - -
//	fold 1: o o o o o x x -
//	fold 2: o o o o o o x x
//
// (o = train rows, x = test rows, - = unused rows.)
type ExpandingWindowSplitter struct {
	testSize int
	nSplits  int
	stepSize int
	eager    bool
}

var _ Splitter = (*ExpandingWindowSplitter)(nil)

// NewExpandingWindowSplitter builds an expanding window splitter.
// testSize is the number of test rows per fold. Fold layouts that do not
// fit a short entity shrink or come back empty rather than failing.
func NewExpandingWindowSplitter(testSize int, opts *WindowOptions) *ExpandingWindowSplitter {
	if opts == nil {
		opts = &WindowOptions{NSplits: DefaultNSplits, StepSize: DefaultStepSize}
	}
	return &ExpandingWindowSplitter{
		testSize: testSize,
		nSplits:  opts.NSplits,
		stepSize: opts.StepSize,
		eager:    opts.Eager,
	}
}

// Folds applies the splitter to a panel dataset, returning one
// (train, test) pair per fold ordered by fold index.
func (s *ExpandingWindowSplitter) Folds(data *frame.LazyFrame) ([]Split, error) {
	return windowFolds(data, s.testSize, s.nSplits, s.stepSize, 0, s.eager)
}
