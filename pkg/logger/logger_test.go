package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pinscraper/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "invalid"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "test.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func newBufferLogger(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: level}, &buf)
	require.NoError(t, err)
	return l, &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(t, "warn")

	l.Info("quiet message")
	l.Warn("loud message")

	assert.NotContains(t, buf.String(), "quiet message")
	assert.Contains(t, buf.String(), "loud message")
	assert.Contains(t, buf.String(), `"app":"pinscraper"`)
}

func TestWithFieldsDoesNotLeakIntoParent(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	child := l.WithField("query", "cats").WithFields(map[string]interface{}{"target": 3})
	child.Info("child message")
	l.Info("parent message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"query":"cats"`)
	assert.Contains(t, lines[0], `"target":3`)
	assert.NotContains(t, lines[1], "query")
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("fetch failed")).Error("candidate dropped")
	assert.Contains(t, buf.String(), `"error":"fetch failed"`)
}

func TestStructuredFieldTypes(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	l.InfoWithFields("typed fields", map[string]interface{}{
		"string":   "value",
		"int":      42,
		"bool":     true,
		"duration": 2 * time.Second,
		"strings":  []string{"a", "b"},
		"cause":    errors.New("boom"),
	})

	out := buf.String()
	assert.Contains(t, out, `"string":"value"`)
	assert.Contains(t, out, `"int":42`)
	assert.Contains(t, out, `"bool":true`)
	assert.Contains(t, out, `"strings":["a","b"]`)
	assert.Contains(t, out, `"cause":"boom"`)
}

func TestLogRequestLevels(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "/api/progress", 200, time.Millisecond)
	LogRequest(tl, "POST", "/api/scrape", 409, time.Millisecond)
	LogRequest(tl, "GET", "/api/downloads", 500, time.Millisecond)

	assert.Len(t, tl.GetMessagesByLevel("DEBUG"), 1)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
	assert.True(t, tl.HasError())
}

func TestTestLoggerSharesSinkAcrossChildren(t *testing.T) {
	tl := NewTestLogger()

	tl.WithField("component", "api").WithError(errors.New("bad")).Warn("child")
	tl.Info("root")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "api", msgs[0].Fields["component"])
	assert.EqualError(t, msgs[0].Error, "bad")
	assert.True(t, tl.HasMessage("root"))
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "debug"}))
	assert.NotNil(t, GetLogger())

	SetLogger(NewNopLogger())
	assert.NotPanics(t, func() { GetLogger().Info("discarded") })
}
