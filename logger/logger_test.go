package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vacation-engine/logger"
)

func TestInit_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "production", "info")

	logger.LoggerWrapper().Info("request approved", "request_id", "req-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request approved", line["msg"])
	assert.Equal(t, "req-1", line["request_id"])
}

func TestInit_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "production", "warn")

	logger.LoggerWrapper().Info("hidden")
	assert.Zero(t, buf.Len())

	logger.LoggerWrapper().Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWith_CarriesFields(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "development", "debug")

	ctx := logger.With(context.Background(), "employee", "ana@example.com")
	logger.From(ctx).Info("preview")

	assert.Contains(t, buf.String(), "employee=ana@example.com")
}

func TestFrom_DefaultsWithoutContextLogger(t *testing.T) {
	assert.NotNil(t, logger.From(context.Background()))
}
