package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput collects entries in memory.
type captureOutput struct {
	entries []LogEntry
}

func (c *captureOutput) Write(e LogEntry) error {
	c.entries = append(c.entries, e)
	return nil
}

func (c *captureOutput) Sync() error  { return nil }
func (c *captureOutput) Close() error { return nil }

func TestLoggerSeverityFiltering(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{Severity: WARN, Outputs: []Output{out}})

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	require.Len(t, out.entries, 2)
	assert.Equal(t, WARN, out.entries[0].Severity)
	assert.Equal(t, ERROR, out.entries[1].Severity)
}

func TestLoggerCarriesRunAndLevelFromContext(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{Severity: DEBUG, Outputs: []Output{out}})

	ctx := WithLevelID(WithRunID(context.Background(), "run-2"), "L3-update")
	logger.Info(ctx, "level started")

	require.Len(t, out.entries, 1)
	assert.Equal(t, "run-2", out.entries[0].RunID)
	assert.Equal(t, "L3-update", out.entries[0].LevelID)
}

func TestLoggerFormatsMessage(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{Severity: DEBUG, Outputs: []Output{out}})

	logger.Info(context.Background(), "scored %.2f over %d questions", 0.85, 3)

	require.Len(t, out.entries, 1)
	assert.Equal(t, "scored 0.85 over 3 questions", out.entries[0].Message)
	assert.NotEmpty(t, out.entries[0].File)
}

func TestLoggerDefaultFields(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{
		Severity:      DEBUG,
		Outputs:       []Output{out},
		DefaultFields: map[string]interface{}{"component": "pipeline"},
	})

	logger.Info(context.Background(), "hello")

	require.Len(t, out.entries, 1)
	assert.Equal(t, "pipeline", out.entries[0].Fields["component"])
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, DEBUG, ParseSeverity("DEBUG"))
	assert.Equal(t, ERROR, ParseSeverity("ERROR"))
	assert.Equal(t, INFO, ParseSeverity("not-a-level"))
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()

	_, ok := GetRunID(ctx)
	assert.False(t, ok)

	ctx = WithRunID(ctx, "run-7")
	id, ok := GetRunID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "run-7", id)

	_, ok = GetLevelID(ctx)
	assert.False(t, ok)
}
