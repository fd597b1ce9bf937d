package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLoggers(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	prevInfo, prevErr := InfoLogger, ErrorLogger
	t.Cleanup(func() {
		InfoLogger, ErrorLogger = prevInfo, prevErr
	})

	var out, errOut bytes.Buffer
	InfoLogger = New(&out)
	ErrorLogger = New(&errOut)
	return &out, &errOut
}

func TestLevelsGoToSeparateStreams(t *testing.T) {
	out, errOut := captureLoggers(t)

	Info("fetched %d coins", 10)
	Warn("cycle skipped")
	Error("commit failed: %v", "boom")

	assert.Contains(t, out.String(), `msg="fetched 10 coins"`)
	assert.Contains(t, out.String(), "level=warning")
	assert.NotContains(t, out.String(), "boom")
	assert.Contains(t, errOut.String(), "level=error")
	assert.Contains(t, errOut.String(), "commit failed: boom")
}

func TestConfigureProductionUsesJSON(t *testing.T) {
	out, _ := captureLoggers(t)
	require.NoError(t, Configure("production", "info"))

	With(map[string]interface{}{"cycle": "ab12cd34"}).Info("committed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
	assert.Equal(t, "committed", entry["msg"])
	assert.Equal(t, "ab12cd34", entry["cycle"])
	assert.Equal(t, "info", entry["level"])
}

func TestConfigureLevelFilters(t *testing.T) {
	out, _ := captureLoggers(t)
	require.NoError(t, Configure("development", "warn"))

	Info("hidden")
	Warn("shown")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown")
}

func TestConfigureRejectsUnknownLevel(t *testing.T) {
	captureLoggers(t)
	assert.Error(t, Configure("development", "loud"))
}
