package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment keys read by LoadConfig.
const (
	EnvInputDir       = "PGMEDGE_INPUT_DIR"
	EnvFilteredDir    = "PGMEDGE_FILTERED_DIR"
	EnvThresholdedDir = "PGMEDGE_THRESHOLDED_DIR"
	EnvLogFile        = "PGMEDGE_LOG_FILE"
	EnvHistogramDir   = "PGMEDGE_HISTOGRAM_DIR"
	EnvJobs           = "PGMEDGE_JOBS"
	EnvLogLevel       = "LOG_LEVEL"
)

// Config holds the batch driver settings.
type Config struct {
	InputDir       string
	FilteredDir    string
	ThresholdedDir string
	LogFile        string
	// HistogramDir enables histogram renderings when non-empty.
	HistogramDir string
	Jobs         int
	LogLevel     string
}

// DefaultConfig mirrors the directory layout the tool has always used.
func DefaultConfig() Config {
	return Config{
		InputDir:       "./assets",
		FilteredDir:    "./filtering_out",
		ThresholdedDir: "./thresholding_out",
		LogFile:        "threshold_log.txt",
		Jobs:           1,
		LogLevel:       "info",
	}
}

// LoadConfig loads envFile into the environment (a missing file is fine,
// and variables already set win) and builds a Config from it. The result is
// not validated; callers apply their overrides first.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	return ConfigFromEnv()
}

// ConfigFromEnv overlays the PGMEDGE_* variables on DefaultConfig. Only
// unparseable values are errors here; see Validate.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	setString(EnvInputDir, &cfg.InputDir)
	setString(EnvFilteredDir, &cfg.FilteredDir)
	setString(EnvThresholdedDir, &cfg.ThresholdedDir)
	setString(EnvLogFile, &cfg.LogFile)
	setString(EnvHistogramDir, &cfg.HistogramDir)
	setString(EnvLogLevel, &cfg.LogLevel)
	if v := strings.TrimSpace(os.Getenv(EnvJobs)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: invalid job count %q", EnvJobs, v)
		}
		cfg.Jobs = n
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("input directory must not be empty")
	}
	if c.FilteredDir == "" || c.ThresholdedDir == "" {
		return errors.New("output directories must not be empty")
	}
	if c.LogFile == "" {
		return errors.New("threshold log path must not be empty")
	}
	if c.Jobs < 1 {
		return fmt.Errorf("job count must be at least 1, got %d", c.Jobs)
	}
	return nil
}
