// Package functime provides train/test splitting for panel time-series
// data in Go.
//
// A panel dataset holds many independent entities, each with its own
// time-ordered sequence of observations; the first column identifies the
// entity. Functime partitions such a dataset into train and test subsets
// for model evaluation without ever reordering rows within an entity:
// every split is a contiguous, order-preserving cut of each entity's own
// series. Three strategies are provided, all stateless and safe for
// concurrent use.
//
// # Basic Usage
//
// Build a splitter once and apply it to any number of datasets:
//
//	df, err := frame.New(
//		frame.Series{Name: "entity", Values: []any{"a", "a", "a", "b", "b", "b"}},
//		frame.Series{Name: "value", Values: []any{1.0, 2.0, 3.0, 10.0, 20.0, 30.0}},
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	splitter, err := functime.NewHoldoutSplitter(1, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	split, err := splitter.Split(df.Lazy())
//	if err != nil {
//		log.Fatal(err)
//	}
//	train, test, err := split.Collect()
//
// # Splitting Strategies
//
// Three strategies cover the common evaluation setups:
//
//   - HoldoutSplitter: one train/test cut per entity; the test segment is
//     the tail of each entity's series, sized by an absolute row count or
//     by a fraction of the entity's rows.
//   - ExpandingWindowSplitter: multiple folds; the training range starts
//     at the first row and grows with the fold index while a fixed-size
//     test range walks toward the end of the series.
//   - SlidingWindowSplitter: multiple folds; a fixed-size training range
//     slides forward together with the test range.
//
// The windowed splitters return one (train, test) pair per fold, ordered
// by fold index. All splitters implement the Splitter interface.
//
// # Lazy Evaluation
//
// Splits are computed lazily: the returned frames describe per-entity
// row selections that are only carried out when Collect is called.
// Passing Eager in the splitter options materializes all outputs before
// returning, so later Collect calls are free. Lazy and eager results
// always hold the same rows.
//
// # Sizing and Validation
//
// The holdout test size is validated when the splitter is built:
// fractions must lie in [0, 1], absolute counts must not be negative,
// and anything that is neither an int nor a float is rejected with
// ErrInvalidParameter. Applying an absolute test size larger than the
// smallest entity's row count fails with ErrInsufficientData.
//
// The windowed splitters are deliberately permissive: fold layouts that
// do not fit a short entity shrink or come back empty instead of
// failing.
//
// # Architecture
//
//   - pkg/frame: the in-memory panel frame and its deferred computation
//     plan (grouping, per-entity slicing, materialization)
//   - pkg/dataset: parquet and CSV panel I/O, remote dataset fetching
//   - pkg/server: HTTP split service
//   - pkg/jobs: persistent asynchronous split jobs
//
// The splitting core depends only on pkg/frame; everything else wraps it
// for serving and tooling.
package functime
