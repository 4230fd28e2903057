package functime

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/christian-hnz/functime/pkg/config"
	"github.com/christian-hnz/functime/pkg/dataset"
	"github.com/christian-hnz/functime/pkg/jobs"
	"github.com/christian-hnz/functime/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Functime HTTP server",
	Long: `Start the Functime HTTP server to provide REST API access to the splitters.

The server provides endpoints for:
- Splitting datasets (holdout, expanding window, sliding window)
- Submitting asynchronous split jobs and polling their status
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Job store flags
	serverCmd.Flags().String("jobs-dir", "", "Directory for the persistent job store")
	serverCmd.Flags().String("output-dir", "./splits", "Directory for fold files written by jobs")
	serverCmd.Flags().String("output-format", "parquet", "Fold file format (parquet, csv)")

	// Fetch flags
	serverCmd.Flags().Int("fetch-timeout", 30, "Remote dataset fetch timeout in seconds")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for telemetry (split records and errors)")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	overrideConfigWithFlags(cmd, cfg)

	// Validate configuration
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, parquetHandler := newLogger(cfg)

	// Open the persistent job store
	store, err := jobs.Open(cfg.Jobs.Dir)
	if err != nil {
		return fmt.Errorf("failed to open job store: %w", err)
	}
	defer store.Close()
	fmt.Printf("Job store ready at: %s\n", store.Dir())

	fetcher := dataset.NewFetcher(dataset.FetcherConfig{
		Timeout:  time.Duration(cfg.Fetch.Timeout) * time.Second,
		MaxBytes: cfg.Fetch.MaxBytes,
	}, logger)

	// Create and setup server
	srv := server.New(cfg, store, fetcher, logger)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		// Create shutdown context with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Shutdown server
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		if parquetHandler != nil {
			if err := parquetHandler.Flush(); err != nil {
				fmt.Printf("Warning: Failed to flush telemetry: %v\n", err)
			}
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Job store flags
	if cmd.Flags().Changed("jobs-dir") {
		cfg.Jobs.Dir, _ = cmd.Flags().GetString("jobs-dir")
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.Output.Dir, _ = cmd.Flags().GetString("output-dir")
	}
	if cmd.Flags().Changed("output-format") {
		cfg.Output.Format, _ = cmd.Flags().GetString("output-format")
	}

	// Fetch flags
	if cmd.Flags().Changed("fetch-timeout") {
		cfg.Fetch.Timeout, _ = cmd.Flags().GetInt("fetch-timeout")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
		cfg.Telemetry.Enabled = true
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	switch cfg.Output.Format {
	case dataset.FormatParquet, dataset.FormatCSV:
	default:
		return fmt.Errorf("unsupported output format: %s", cfg.Output.Format)
	}
	return nil
}
