package functime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/christian-hnz/functime"
	"github.com/christian-hnz/functime/pkg/config"
	"github.com/christian-hnz/functime/pkg/dataset"
	"github.com/christian-hnz/functime/pkg/frame"
	"github.com/christian-hnz/functime/pkg/parallel"
	"github.com/christian-hnz/functime/pkg/telemetry"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split a panel dataset into train and test folds",
	Long: `Split reads a panel dataset from a Parquet or CSV file, applies the
requested splitter, and writes every fold as a pair of train and test
files.

A single split is described with flags. A YAML plan file can describe
several named splits that run against the same dataset in one go.`,
	RunE: runSplit,
}

var (
	splitInput    string
	splitOutput   string
	splitFormat   string
	splitName     string
	splitTestSize string
	splitEager    bool
	splitPlanFile string
)

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringVar(&splitInput, "input", "", "Input dataset file (parquet or csv)")
	splitCmd.Flags().StringVar(&splitOutput, "output", "", "Output directory for fold files")
	splitCmd.Flags().StringVar(&splitFormat, "output-format", "", "Fold file format (parquet, csv)")
	splitCmd.Flags().StringVar(&splitName, "splitter", "holdout", "Splitter (holdout, expanding, sliding)")
	splitCmd.Flags().StringVar(&splitTestSize, "test-size", "", "Test size, absolute count or fraction")
	splitCmd.Flags().Int("n-splits", functime.DefaultNSplits, "Number of folds for window splitters")
	splitCmd.Flags().Int("step-size", functime.DefaultStepSize, "Cutoff spacing for window splitters")
	splitCmd.Flags().Int("window-size", functime.DefaultWindowSize, "Training window for the sliding splitter")
	splitCmd.Flags().BoolVar(&splitEager, "eager", false, "Materialize folds eagerly")
	splitCmd.Flags().StringVar(&splitPlanFile, "plan", "", "YAML split plan to run instead of flags")
}

// splitPlan describes a batch of named splits over one dataset
type splitPlan struct {
	Dataset string      `yaml:"dataset"`
	Output  string      `yaml:"output"`
	Format  string      `yaml:"format"`
	Splits  []planEntry `yaml:"splits"`
}

// planEntry describes one splitter run. Nil window parameters select
// the splitter defaults, so a plan can say step_size: 0 and mean it.
type planEntry struct {
	Name       string      `yaml:"name"`
	Splitter   string      `yaml:"splitter"`
	TestSize   interface{} `yaml:"test_size"`
	NSplits    *int        `yaml:"n_splits"`
	StepSize   *int        `yaml:"step_size"`
	WindowSize *int        `yaml:"window_size"`
	Eager      bool        `yaml:"eager"`
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, parquetHandler := newLogger(cfg)
	if parquetHandler != nil {
		defer parquetHandler.Flush()
	}
	ctx := telemetry.WithSource(context.Background(), "cli")

	outDir := cfg.Output.Dir
	if splitOutput != "" {
		outDir = splitOutput
	}
	format := cfg.Output.Format
	if splitFormat != "" {
		format = splitFormat
	}

	plan, err := resolvePlan(cmd, cfg)
	if err != nil {
		return err
	}
	if plan.Dataset == "" {
		return fmt.Errorf("no input dataset: use --input or the plan's dataset field")
	}
	if plan.Output != "" {
		outDir = plan.Output
	}
	if plan.Format != "" {
		format = plan.Format
	}

	data, err := dataset.ReadFile(plan.Dataset)
	if err != nil {
		return fmt.Errorf("failed to read dataset: %w", err)
	}

	for _, entry := range plan.Splits {
		start := time.Now()
		outputs, err := executePlanEntry(ctx, data, outDir, format, entry)
		if err != nil {
			return fmt.Errorf("split %q: %w", entry.Name, err)
		}
		log.InfoContext(ctx, "Folds written",
			"operation", "split",
			"splitter", entry.Splitter,
			"name", entry.Name,
			"entities", countEntities(data),
			"folds", len(outputs)/2,
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
		)
		for _, path := range outputs {
			fmt.Println(path)
		}
	}

	return nil
}

// resolvePlan builds the plan to run, either from the plan file or from
// the single-split flags
func resolvePlan(cmd *cobra.Command, cfg *config.Config) (*splitPlan, error) {
	if splitPlanFile != "" {
		plan, err := loadPlan(splitPlanFile)
		if err != nil {
			return nil, err
		}
		if plan.Dataset == "" {
			plan.Dataset = splitInput
		}
		return plan, nil
	}

	testSize := splitTestSize
	if testSize == "" {
		testSize = cfg.Split.TestSize
	}

	entry := planEntry{
		Name:     splitName,
		Splitter: splitName,
		TestSize: testSize,
		Eager:    splitEager,
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

	return &splitPlan{Dataset: splitInput, Splits: []planEntry{entry}}, nil
}

// loadPlan reads and validates a YAML split plan
func loadPlan(path string) (*splitPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan splitPlan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}

	if len(plan.Splits) == 0 {
		return nil, fmt.Errorf("plan %s contains no splits", path)
	}
	for i, entry := range plan.Splits {
		if entry.Splitter == "" {
			return nil, fmt.Errorf("plan split %d has no splitter", i)
		}
		if entry.TestSize == nil {
			return nil, fmt.Errorf("plan split %d has no test_size", i)
		}
	}

	return &plan, nil
}

// resolveTestSize normalizes a test size from YAML or a flag string into
// the int-or-float value the splitters take
func resolveTestSize(v interface{}) (interface{}, error) {
	switch size := v.(type) {
	case int:
		return size, nil
	case float64:
		return size, nil
	case string:
		if i, err := strconv.Atoi(size); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(size, 64); err == nil {
			return f, nil
		}
		return nil, fmt.Errorf("test size %q is neither an int nor a float", size)
	default:
		return v, nil
	}
}

// newNamedSplitter constructs the splitter a plan entry names
func newNamedSplitter(entry planEntry) (functime.Splitter, error) {
	size, err := resolveTestSize(entry.TestSize)
	if err != nil {
		return nil, err
	}

	switch entry.Splitter {
	case "holdout":
		return functime.NewHoldoutSplitter(size, &functime.HoldoutOptions{Eager: entry.Eager})

	case "expanding":
		testSize, ok := size.(int)
		if !ok {
			return nil, fmt.Errorf("window splitters need an integer test size, got %v", size)
		}
		opts := &functime.WindowOptions{
			NSplits:  functime.DefaultNSplits,
			StepSize: functime.DefaultStepSize,
			Eager:    entry.Eager,
		}
		if entry.NSplits != nil {
			opts.NSplits = *entry.NSplits
		}
		if entry.StepSize != nil {
			opts.StepSize = *entry.StepSize
		}
		return functime.NewExpandingWindowSplitter(testSize, opts), nil

	case "sliding":
		testSize, ok := size.(int)
		if !ok {
			return nil, fmt.Errorf("window splitters need an integer test size, got %v", size)
		}
		opts := &functime.SlidingWindowOptions{
			NSplits:    functime.DefaultNSplits,
			StepSize:   functime.DefaultStepSize,
			WindowSize: functime.DefaultWindowSize,
			Eager:      entry.Eager,
		}
		if entry.NSplits != nil {
			opts.NSplits = *entry.NSplits
		}
		if entry.StepSize != nil {
			opts.StepSize = *entry.StepSize
		}
		if entry.WindowSize != nil {
			opts.WindowSize = *entry.WindowSize
		}
		return functime.NewSlidingWindowSplitter(testSize, opts), nil

	default:
		return nil, fmt.Errorf("unknown splitter %q: must be holdout, expanding, or sliding", entry.Splitter)
	}
}

// executePlanEntry runs one split and writes its folds under
// outDir/<name>, returning the written file paths. Folds are collected
// and written by a bounded worker pool.
func executePlanEntry(ctx context.Context, data *frame.Frame, outDir, format string, entry planEntry) ([]string, error) {
	splitter, err := newNamedSplitter(entry)
	if err != nil {
		return nil, err
	}

	folds, err := splitter.Folds(data.Lazy())
	if err != nil {
		return nil, err
	}

	name := entry.Name
	if name == "" {
		name = entry.Splitter
	}
	dir := filepath.Join(outDir, name)

	pool := parallel.NewWorkerPool(0, func(ctx context.Context, i int) ([]string, error) {
		train, test, err := folds[i].Collect()
		if err != nil {
			return nil, err
		}

		trainPath := filepath.Join(dir, fmt.Sprintf("fold_%d_train.%s", i, format))
		if err := dataset.WriteFile(trainPath, train); err != nil {
			return nil, fmt.Errorf("train: %w", err)
		}
		testPath := filepath.Join(dir, fmt.Sprintf("fold_%d_test.%s", i, format))
		if err := dataset.WriteFile(testPath, test); err != nil {
			return nil, fmt.Errorf("test: %w", err)
		}
		return []string{trainPath, testPath}, nil
	})

	indexes := make([]int, len(folds))
	for i := range indexes {
		indexes[i] = i
	}
	paths, errs := pool.ProcessItems(ctx, indexes)

	var outputs []string
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", i, err)
		}
		outputs = append(outputs, paths[i]...)
	}
	return outputs, nil
}

// countEntities returns the number of distinct entities in the frame
func countEntities(f *frame.Frame) int {
	cols := f.Columns()
	if len(cols) == 0 {
		return 0
	}
	entity, err := f.Column(cols[0])
	if err != nil {
		return 0
	}
	seen := make(map[any]struct{})
	for _, v := range entity.Values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
