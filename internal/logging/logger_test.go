package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offlineform/internal/config"
	"offlineform/internal/logging"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	require.NoError(t, err)

	logging.NewComponentLogger(logger, "replay").Info("entry sent",
		logging.String(logging.FieldEntryID, "abc"),
		logging.String(logging.FieldAction, "https://x.test/form"),
		logging.Int(logging.FieldQueueLength, 2),
	)

	content := readLog(t, logPath)
	assert.Contains(t, content, " INFO replay: entry sent")
	assert.Contains(t, content, "entry_id=abc")
	assert.Contains(t, content, "action=https://x.test/form")
	assert.Contains(t, content, "queue_length=2")
	assert.NotContains(t, content, ".go:", "info logs should not carry caller information")
}

func TestConsoleLoggerQuotesValuesWithSpaces(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	require.NoError(t, err)

	logger.Warn("probe failed", logging.String("reason", "no route to host"))

	content := readLog(t, logPath)
	assert.Contains(t, content, `reason="no route to host"`)
	assert.Contains(t, content, " WARN probe failed")
}

func TestDebugLevelIncludesCaller(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	require.NoError(t, err)

	logger.Debug("with caller")

	assert.Contains(t, readLog(t, logPath), "logger_test.go:")
}

func TestLevelFiltersLowerRecords(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", OutputPaths: []string{logPath}})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Error("shown")

	content := readLog(t, logPath)
	assert.NotContains(t, content, "hidden")
	assert.Contains(t, content, "shown")
}

func TestJSONFileMirrorsRecords(t *testing.T) {
	dir := t.TempDir()
	consolePath := filepath.Join(dir, "console.log")
	jsonPath := filepath.Join(dir, "nested", "daemon.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		OutputPaths: []string{consolePath},
		JSONFile:    jsonPath,
	})
	require.NoError(t, err)

	logger.Info("queued", logging.Int(logging.FieldQueueLength, 3))

	assert.Contains(t, readLog(t, consolePath), "queued")

	line := strings.TrimSpace(readLog(t, jsonPath))
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "queued", record["msg"])
	assert.Equal(t, "info", record["level"])
	assert.Equal(t, float64(3), record["queue_length"])
	assert.Contains(t, record, "ts")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "xml"})
	require.Error(t, err)
}

func TestNewFromConfigWritesDaemonLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, true)
	require.NoError(t, err)
	logger.Info("daemon started")

	assert.Contains(t, readLog(t, cfg.LogPath()), "daemon started")
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	assert.False(t, logger.Enabled(t.Context(), 8))
	logger.Error("ignored")
}

func TestWarnWithImpactFillsMissingFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.json")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	require.NoError(t, err)

	logging.WarnWithImpact(logger, "notification failed", "notification_failed", "check topic", "outcome not pushed",
		logging.String(logging.FieldImpact, "caller impact"),
	)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &record))
	assert.Equal(t, "warn", record["level"])
	assert.Equal(t, "notification_failed", record[logging.FieldEventType])
	assert.Equal(t, "check topic", record[logging.FieldErrorHint])
	assert.Equal(t, "caller impact", record[logging.FieldImpact])
}
