package functime

import (
	"fmt"
	"testing"
)

func TestExpandingMonotonicity(t *testing.T) {
	t.Parallel()
	data := newTestPanel(t, entitySpec{"a", 10}, entitySpec{"b", 12})

	splitter := NewExpandingWindowSplitter(3, &WindowOptions{NSplits: 5, StepSize: 1})
	folds, err := splitter.Folds(data.Lazy())
	if err != nil {
		t.Fatalf("Folds() error = %v", err)
	}
	if len(folds) != 5 {
		t.Fatalf("got %d folds, want 5", len(folds))
	}

	prevTrainLen := -1
	for i, fold := range folds {
		train, test := collectSplit(t, fold)
		// cutoff for fold i is (5-1-i)*1 + 3.
		cutoff := (4-i)*1 + 3

		for _, e := range []entitySpec{{"a", 10}, {"b", 12}} {
			trainSteps := entitySteps(t, train, e.id)
			testSteps := entitySteps(t, test, e.id)

			assertStepsEqual(t, trainSteps, seq(0, e.rows-cutoff), fmt.Sprintf("fold %d entity %s train", i, e.id))
			assertStepsEqual(t, testSteps, seq(e.rows-cutoff, e.rows-cutoff+3), fmt.Sprintf("fold %d entity %s test", i, e.id))
			if len(testSteps) != 3 {
				t.Errorf("fold %d entity %s: test length = %d, want 3", i, e.id, len(testSteps))
			}
		}

		trainLen := len(entitySteps(t, train, "a"))
		if trainLen <= prevTrainLen {
			t.Errorf("fold %d: train length %d did not grow past %d", i, trainLen, prevTrainLen)
		}
		prevTrainLen = trainLen
	}

	// Fold 0 trains on 10-7=3 rows, fold 4 on 10-3=7; fold 4 tests on the
	// entity's last 3 rows.
	firstTrain, _ := collectSplit(t, folds[0])
	lastTrain, lastTest := collectSplit(t, folds[4])
	if got := len(entitySteps(t, firstTrain, "a")); got != 3 {
		t.Errorf("fold 0 train length = %d, want 3", got)
	}
	if got := len(entitySteps(t, lastTrain, "a")); got != 7 {
		t.Errorf("fold 4 train length = %d, want 7", got)
	}
	assertStepsEqual(t, entitySteps(t, lastTest, "a"), seq(7, 10), "fold 4 test")
}

func TestExpandingStepZero(t *testing.T) {
	t.Parallel()
	data := newTestPanel(t, entitySpec{"a", 10})

	splitter := NewExpandingWindowSplitter(3, &WindowOptions{NSplits: 3, StepSize: 0})
	folds, err := splitter.Folds(data.Lazy())
	if err != nil {
		t.Fatalf("Folds() error = %v", err)
	}

	// With a step of 0 every fold ends at the same row, so train length
	// stays equal instead of growing.
	for i, fold := range folds {
		train, test := collectSplit(t, fold)
		assertStepsEqual(t, entitySteps(t, train, "a"), seq(0, 7), fmt.Sprintf("fold %d train", i))
		assertStepsEqual(t, entitySteps(t, test, "a"), seq(7, 10), fmt.Sprintf("fold %d test", i))
	}
}

func TestExpandingDefaults(t *testing.T) {
	t.Parallel()
	data := newTestPanel(t, entitySpec{"a", 20})

	folds, err := NewExpandingWindowSplitter(2, nil).Folds(data.Lazy())
	if err != nil {
		t.Fatalf("Folds() error = %v", err)
	}
	if len(folds) != DefaultNSplits {
		t.Fatalf("got %d folds, want %d", len(folds), DefaultNSplits)
	}
	// Defaults walk the 2-row test range back one row per fold from the
	// tail: fold 4 tests rows 18..19, fold 0 tests rows 14..15.
	_, firstTest := collectSplit(t, folds[0])
	_, lastTest := collectSplit(t, folds[4])
	assertStepsEqual(t, entitySteps(t, firstTest, "a"), seq(14, 16), "fold 0 test")
	assertStepsEqual(t, entitySteps(t, lastTest, "a"), seq(18, 20), "fold 4 test")
}

// Entities shorter than a fold's cutoff shrink to partial or empty
// ranges instead of failing.
func TestExpandingShortEntityTruncates(t *testing.T) {
	t.Parallel()
	data := newTestPanel(t, entitySpec{"a", 4})

	folds, err := NewExpandingWindowSplitter(3, nil).Folds(data.Lazy())
	if err != nil {
		t.Fatalf("Folds() error = %v", err)
	}

	// Fold 0's cutoff (7) is beyond the entity entirely.
	train0, test0 := collectSplit(t, folds[0])
	if train0.NumRows() != 0 || test0.NumRows() != 0 {
		t.Errorf("fold 0: got train=%d test=%d rows, want empty", train0.NumRows(), test0.NumRows())
	}

	// Fold 1 (cutoff 6) catches a truncated test range at the start.
	_, test1 := collectSplit(t, folds[1])
	assertStepsEqual(t, entitySteps(t, test1, "a"), seq(0, 1), "fold 1 test")

	// The last fold (cutoff 3) fits: one train row, three test rows.
	train4, test4 := collectSplit(t, folds[4])
	assertStepsEqual(t, entitySteps(t, train4, "a"), seq(0, 1), "fold 4 train")
	assertStepsEqual(t, entitySteps(t, test4, "a"), seq(1, 4), "fold 4 test")
}
