package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Split configuration
	Split SplitConfig `mapstructure:"split"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`

	// Fetch configuration
	Fetch FetchConfig `mapstructure:"fetch"`

	// Jobs configuration
	Jobs JobsConfig `mapstructure:"jobs"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// SplitConfig holds the default splitter parameters used when a command
// or request does not state them explicitly. TestSize is kept as a
// string so both absolute counts ("3") and fractions ("0.25") survive
// until they are parsed.
type SplitConfig struct {
	TestSize   string `mapstructure:"test_size"`
	NSplits    int    `mapstructure:"n_splits"`
	StepSize   int    `mapstructure:"step_size"`
	WindowSize int    `mapstructure:"window_size"`
	Eager      bool   `mapstructure:"eager"`
}

// OutputConfig holds fold output configuration
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"` // parquet, csv
}

// FetchConfig holds remote dataset fetch configuration
type FetchConfig struct {
	Timeout  int   `mapstructure:"timeout"` // in seconds
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// JobsConfig holds the persistent job store configuration
type JobsConfig struct {
	Dir string `mapstructure:"dir"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ParquetPath string `mapstructure:"parquet_path"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Split defaults
	viper.SetDefault("split.test_size", "1")
	viper.SetDefault("split.n_splits", 5)
	viper.SetDefault("split.step_size", 1)
	viper.SetDefault("split.window_size", 10)
	viper.SetDefault("split.eager", false)

	// Output defaults
	viper.SetDefault("output.dir", "./splits")
	viper.SetDefault("output.format", "parquet")

	// Fetch defaults
	viper.SetDefault("fetch.timeout", 30)
	viper.SetDefault("fetch.max_bytes", 128<<20)

	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("jobs.dir", fmt.Sprintf("%s/.functime/jobs", home))
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.functime/telemetry", home))
	} else {
		viper.SetDefault("jobs.dir", "./functime_jobs")
		viper.SetDefault("telemetry.parquet_path", "./functime_telemetry")
	}
	viper.SetDefault("telemetry.enabled", false)
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		viper.Set("server.port", port)
	}

	// Output settings
	if dir := os.Getenv("OUTPUT_DIR"); dir != "" {
		config.Output.Dir = dir
	}

	// Jobs settings
	if dir := os.Getenv("JOBS_DIR"); dir != "" {
		config.Jobs.Dir = dir
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
