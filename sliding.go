package functime

import "github.com/christian-hnz/functime/pkg/frame"

// SlidingWindowOptions tunes a SlidingWindowSplitter. A nil value
// selects the defaults: DefaultNSplits folds, DefaultStepSize rows
// between folds, a training window of DefaultWindowSize rows, lazy
// evaluation. A non-nil value is taken literally.
type SlidingWindowOptions struct {
	// NSplits is the number of folds.
	NSplits int
	// StepSize is the number of rows between consecutive folds' test
	// ranges.
	StepSize int
	// WindowSize is the fixed training-range length. A WindowSize of 0
	// degenerates to expanding behavior.
	WindowSize int
	// Eager materializes every fold before Folds returns.
	Eager bool
}

// SlidingWindowSplitter produces folds whose fixed-size training range
// slides forward together with the test range. On an entity with 8 rows,
// testSize 2, 3 folds, step 1 and a window of 3:
//
//	fold 0: - o o o x x - -
//	fold 1: - - o o o x x -
//	fold 2: - - - o o o x x
//
// (o = train rows, x = test rows, - = unused rows.)
type SlidingWindowSplitter struct {
	testSize   int
	nSplits    int
	stepSize   int
	windowSize int
	eager      bool
}

var _ Splitter = (*SlidingWindowSplitter)(nil)

// NewSlidingWindowSplitter builds a sliding window splitter. testSize is
// the number of test rows per fold. Fold layouts are not validated
// against entity lengths; a window that does not fit an entity's
// history resolves through the frame's signed slice rules instead of
// failing.
func NewSlidingWindowSplitter(testSize int, opts *SlidingWindowOptions) *SlidingWindowSplitter {
	if opts == nil {
		opts = &SlidingWindowOptions{
			NSplits:    DefaultNSplits,
			StepSize:   DefaultStepSize,
			WindowSize: DefaultWindowSize,
		}
	}
	return &SlidingWindowSplitter{
		testSize:   testSize,
		nSplits:    opts.NSplits,
		stepSize:   opts.StepSize,
		windowSize: opts.WindowSize,
		eager:      opts.Eager,
	}
}

// Folds applies the splitter to a panel dataset, returning one
// (train, test) pair per fold ordered by fold index.
func (s *SlidingWindowSplitter) Folds(data *frame.LazyFrame) ([]Split, error) {
	return windowFolds(data, s.testSize, s.nSplits, s.stepSize, s.windowSize, s.eager)
}
