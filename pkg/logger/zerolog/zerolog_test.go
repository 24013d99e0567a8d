package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/raykavin/autoblacklist/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	require.Error(t, err)
}

func TestAdapter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", JSON: true, Output: &buf})
	require.NoError(t, err)

	log.WithFields(logger.Fields{"symbol": "FOO"}).WithError(errors.New("boom")).Warnf("skipped %d", 1)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "warn", line["level"])
	require.Equal(t, "FOO", line["symbol"])
	require.Equal(t, "boom", line["error"])
	require.Equal(t, "skipped 1", line["message"])
}

func TestAdapter_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "info", JSON: true, Output: &buf})
	require.NoError(t, err)
	require.Equal(t, logger.InfoLevel, log.GetLevel())

	log.Debug("hidden")
	require.Zero(t, buf.Len())

	log.SetLevel(logger.DebugLevel)
	log.Debug("shown")
	require.Contains(t, buf.String(), "shown")
}
