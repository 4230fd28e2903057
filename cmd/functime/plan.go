package functime

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/christian-hnz/functime"
	"github.com/christian-hnz/functime/pkg/frame"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview the fold layout of a splitter",
	Long: `Plan renders the folds a splitter would produce on a series of the
given length without touching any dataset. Train rows show as "o",
test rows as "x", unused rows as "-":

  fold 0: o o o o x x - -
  fold 1: o o o o o x x -
  fold 2: o o o o o o x x`,
	RunE: runPlan,
}

var (
	planLength   int
	planSplitter string
	planTestSize string
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().IntVar(&planLength, "length", 12, "Series length to lay the folds over")
	planCmd.Flags().StringVar(&planSplitter, "splitter", "expanding", "Splitter (holdout, expanding, sliding)")
	planCmd.Flags().StringVar(&planTestSize, "test-size", "3", "Test size, absolute count or fraction")
	planCmd.Flags().Int("n-splits", functime.DefaultNSplits, "Number of folds for window splitters")
	planCmd.Flags().Int("step-size", functime.DefaultStepSize, "Cutoff spacing for window splitters")
	planCmd.Flags().Int("window-size", functime.DefaultWindowSize, "Training window for the sliding splitter")
}

func runPlan(cmd *cobra.Command, args []string) error {
	entry := planEntry{
		Splitter: planSplitter,
		TestSize: planTestSize,
	}
	if cmd.Flags().Changed("n-splits") {
		n, _ := cmd.Flags().GetInt("n-splits")
		entry.NSplits = &n
	}
	if cmd.Flags().Changed("step-size") {
		n, _ := cmd.Flags().GetInt("step-size")
		entry.StepSize = &n
	}
	if cmd.Flags().Changed("window-size") {
		n, _ := cmd.Flags().GetInt("window-size")
		entry.WindowSize = &n
	}

	splitter, err := newNamedSplitter(entry)
	if err != nil {
		return err
	}

	diagram, err := renderFoldDiagram(splitter, planLength)
	if err != nil {
		return err
	}

	cmd.Print(diagram)
	return nil
}

// renderFoldDiagram lays the splitter's folds over a single synthetic
// series and marks every row as train (o), test (x) or unused (-)
func renderFoldDiagram(splitter functime.Splitter, length int) (string, error) {
	entities := make([]any, length)
	steps := make([]any, length)
	for i := 0; i < length; i++ {
		entities[i] = "series"
		steps[i] = i
	}

	data, err := frame.New(
		frame.Series{Name: "series_id", Values: entities},
		frame.Series{Name: "step", Values: steps},
	)
	if err != nil {
		return "", err
	}

	folds, err := splitter.Folds(data.Lazy())
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, fold := range folds {
		train, test, err := fold.Collect()
		if err != nil {
			return "", fmt.Errorf("fold %d: %w", i, err)
		}

		marks := make([]string, length)
		for j := range marks {
			marks[j] = "-"
		}
		if err := markSteps(train, marks, "o"); err != nil {
			return "", fmt.Errorf("fold %d: %w", i, err)
		}
		if err := markSteps(test, marks, "x"); err != nil {
			return "", fmt.Errorf("fold %d: %w", i, err)
		}

		fmt.Fprintf(&b, "fold %d: %s\n", i, strings.Join(marks, " "))
	}

	return b.String(), nil
}

func markSteps(f *frame.Frame, marks []string, mark string) error {
	col, err := f.Column("step")
	if err != nil {
		return err
	}
	for _, v := range col.Values {
		step, ok := v.(int)
		if !ok || step < 0 || step >= len(marks) {
			return fmt.Errorf("step %v out of range", v)
		}
		marks[step] = mark
	}
	return nil
}
