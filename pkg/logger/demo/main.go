package main

import (
	"log/slog"

	"github.com/christian-hnz/functime/pkg/logger"
)

func main() {
	// Create a colored logger
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Info("============================================")
	log.Info("    Functime Colored Logger Demo")
	log.Info("============================================")
	log.Info("")

	log.Debug("Debug message - standard color")
	log.Info("Info message - standard color")
	log.Info("Persisting folds to disk - green!")
	log.Info("Folds written successfully - also green!")
	log.Warn("Warning message - yellow!")
	log.Error("Error message - red!")

	log.Info("")
	log.Info("Persistence operations are highlighted in green:")
	log.Info("Persisting holdout split", "train_rows", 420, "test_rows", 100)
	log.Info("Holdout split written", "duration", "0.4s")
	log.Info("Persisting expanding window folds", "folds", 5)
	log.Info("Expanding window folds written", "duration", "1.1s")

	log.Info("")
	log.Warn("Warnings appear in yellow for attention")
	log.Error("Errors appear in red for immediate visibility")

	log.Info("")
	log.Info("Demo complete!")
}
