package functime

import "github.com/christian-hnz/functime/pkg/frame"

// windowCutoffs returns one cutoff per fold, ordered by fold index. A
// cutoff is a row offset measured backward from the end of an entity's
// series: fold i's test range covers the test window that starts
// cutoffs[i] rows before the end. Fold 0 carries the largest cutoff
// (earliest-ending window); the last fold's cutoff equals testSize, so
// its test range is the very tail of the series.
func windowCutoffs(testSize, nSplits, stepSize int) []int {
	cutoffs := make([]int, 0, nSplits)
	for k := nSplits - 1; k >= 1; k-- {
		cutoffs = append(cutoffs, k*stepSize+testSize)
	}
	return append(cutoffs, testSize)
}

// windowFolds is the shared engine behind the windowed splitters. For
// every fold it selects, per entity with n rows and cutoff c:
//
//	test:  rows [n-c, n-c+testSize)
//	train: rows [0, n-c)            expanding (windowSize == 0)
//	train: rows [n-c-windowSize, n-c)  sliding
//
// Cutoffs are computed once and reused for every entity. Fold ranges
// are never validated against entity lengths: they resolve through the
// frame's signed slice rules, so short entities yield clipped or empty
// windows, and a sliding start below row zero re-anchors from the end.
func windowFolds(data *frame.LazyFrame, testSize, nSplits, stepSize, windowSize int, eager bool) ([]Split, error) {
	entity, err := data.EntityColumn()
	if err != nil {
		return nil, err
	}

	cutoffs := windowCutoffs(testSize, nSplits, stepSize)
	splits := make([]Split, 0, nSplits)
	for i := 0; i < nSplits; i++ {
		cutoff := cutoffs[i]

		var trainSlice frame.SliceFunc
		if windowSize != 0 {
			trainSlice = func(n int) (int, int) { return n - cutoff - windowSize, windowSize }
		} else {
			trainSlice = func(n int) (int, int) { return 0, n - cutoff }
		}
		train := data.GroupBy(entity).Slice(trainSlice).Explode()
		test := data.GroupBy(entity).
			Slice(func(n int) (int, int) { return -cutoff, testSize }).
			Explode()

		if eager {
			frames, err := frame.CollectAll(train, test)
			if err != nil {
				return nil, err
			}
			train, test = frames[0].Lazy(), frames[1].Lazy()
		}
		splits = append(splits, Split{Train: train, Test: test})
	}
	return splits, nil
}
