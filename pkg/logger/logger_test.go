package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/winners/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	return &Logger{zlog: zerolog.New(buf).With().Timestamp().Logger()}
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { log.Debug("debug message") }, "debug message", "debug"},
		{"info", func() { log.Info("info message") }, "info message", "info"},
		{"warn", func() { log.Warn("warn message") }, "warn message", "warn"},
		{"error", func() { log.Error("error message") }, "error message", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decode(t, &buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["message"])
		})
	}
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.WithField("module", "s1_returns").
		WithFields(map[string]interface{}{
			"ticker": "ACME",
			"rows":   3,
		}).
		WithError(errors.New("boom")).
		Info("recompute done")

	entry := decode(t, &buf)
	assert.Equal(t, "s1_returns", entry["module"])
	assert.Equal(t, "ACME", entry["ticker"])
	assert.Equal(t, float64(3), entry["rows"])
	assert.Equal(t, "boom", entry["error"])
}

func TestNewWithWriterFormats(t *testing.T) {
	for _, format := range []string{"json", "console", "pretty"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&config.Config{
				Env:       "development",
				LogLevel:  "info",
				LogFormat: format,
			}, &buf)

			log.Info("test message")
			assert.True(t, strings.Contains(buf.String(), "test message"))
		})
	}
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	assert.NotPanics(t, func() {
		log.WithField("k", "v").Info("ignored")
	})
}
