package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRelease(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("LOG_LEVEL", "")

	var buf bytes.Buffer
	l := New(&buf)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l.WithField("paymentID", "pi_1").Info("payment settled")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "payment settled", entry["msg"])
	assert.Equal(t, "pi_1", entry["paymentID"])
}

func TestNewDevelopment(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("LOG_LEVEL", "")

	l := New(&bytes.Buffer{})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}

func TestNewLevelOverride(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("LOG_LEVEL", "warn")

	assert.Equal(t, logrus.WarnLevel, New(&bytes.Buffer{}).GetLevel())
}
