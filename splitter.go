package functime

import "github.com/christian-hnz/functime/pkg/frame"

// Defaults for the windowed splitters, applied when the options struct
// passed to a factory is nil.
const (
	DefaultNSplits    = 5
	DefaultStepSize   = 1
	DefaultWindowSize = 10
)

// Split pairs the training rows with the held-out test rows of one fold.
// Both sides are lazy frames; splitters built with Eager return frames
// that are already materialized, so collecting them is free.
type Split struct {
	Train *frame.LazyFrame
	Test  *frame.LazyFrame
}

// Collect materializes both sides of the split.
func (s *Split) Collect() (train, test *frame.Frame, err error) {
	frames, err := frame.CollectAll(s.Train, s.Test)
	if err != nil {
		return nil, nil, err
	}
	return frames[0], frames[1], nil
}

// Splitter is implemented by every splitting strategy. Folds applies the
// configured strategy to a panel dataset and returns one (train, test)
// pair per fold, ordered by fold index. Splitters are immutable and may
// be applied concurrently and repeatedly; the same input always yields
// the same folds.
type Splitter interface {
	Folds(data *frame.LazyFrame) ([]Split, error)
}
