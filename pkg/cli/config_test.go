package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

var allEnvKeys = []string{EnvInputDir, EnvFilteredDir, EnvThresholdedDir, EnvLogFile, EnvHistogramDir, EnvJobs, EnvLogLevel}

func TestConfigFromEnvDefaults(t *testing.T) {
	unsetEnv(t, allEnvKeys...)
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "./assets", cfg.InputDir)
	assert.Equal(t, "threshold_log.txt", cfg.LogFile)
	assert.Empty(t, cfg.HistogramDir)
}

func TestConfigFromEnvOverrides(t *testing.T) {
	unsetEnv(t, allEnvKeys...)
	t.Setenv(EnvInputDir, " /data/in ")
	t.Setenv(EnvHistogramDir, "/data/hist")
	t.Setenv(EnvJobs, "4")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/data/in", cfg.InputDir)
	assert.Equal(t, "/data/hist", cfg.HistogramDir)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "./filtering_out", cfg.FilteredDir)
}

func TestConfigFromEnvInvalid(t *testing.T) {
	unsetEnv(t, allEnvKeys...)
	t.Setenv(EnvJobs, "many")
	_, err := ConfigFromEnv()
	assert.ErrorContains(t, err, EnvJobs)

	// out-of-range values load and are left for Validate after overrides
	t.Setenv(EnvJobs, "0")
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Jobs)
	assert.Error(t, cfg.Validate())

	t.Setenv(EnvJobs, "1")
	t.Setenv(EnvInputDir, "")
	cfg, err = ConfigFromEnv()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigDotenv(t *testing.T) {
	unsetEnv(t, allEnvKeys...)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("# settings\nPGMEDGE_INPUT_DIR=/from/file\nPGMEDGE_JOBS=3\n"), 0o600))
	t.Setenv(EnvJobs, "2")

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "/from/file", cfg.InputDir)
	assert.Equal(t, 2, cfg.Jobs, "the process environment wins over the file")
}

func TestLoadConfigMissingFile(t *testing.T) {
	unsetEnv(t, allEnvKeys...)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestThresholdLog(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewThresholdLog(&buf)
	require.NoError(t, err)
	require.NoError(t, l.Append(Record{Name: "a.pgm", Threshold: 17}))
	require.NoError(t, l.Append(Record{Name: "b.pgm", Threshold: 0}))
	assert.Equal(t, "Threshold Log\n=============\n\nImage: a.pgm\nThreshold: 17\n\nImage: b.pgm\nThreshold: 0\n\n", buf.String())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestThresholdLogWriteError(t *testing.T) {
	_, err := NewThresholdLog(failWriter{})
	assert.ErrorContains(t, err, "disk full")

	l := &ThresholdLog{w: failWriter{}}
	assert.ErrorContains(t, l.Append(Record{Name: "a.pgm"}), "a.pgm")
}
