package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lucidaflow/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: level, Format: "json"}, &buf)
	require.NoError(t, err)
	return l, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info console", &config.LoggingConfig{Level: "info"}, false},
		{"debug json", &config.LoggingConfig{Level: "debug", Format: "json"}, false},
		{"invalid level", &config.LoggingConfig{Level: "chatty"}, true},
		{"with file", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "lucida.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
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
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
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

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(t, "warn")

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("visible")
	entry := lastEntry(t, buf)
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, AppName, entry["app"])
}

func TestWithFieldsDoNotLeakToParent(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	child := l.WithField("service", "qobuz").WithFields(map[string]interface{}{"limit": 5})
	child.Info("search")
	entry := lastEntry(t, buf)
	assert.Equal(t, "qobuz", entry["service"])
	assert.Equal(t, float64(5), entry["limit"])

	l.Info("plain")
	entry = lastEntry(t, buf)
	assert.NotContains(t, entry, "service")
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("boom")).Error("failed")
	assert.Equal(t, "boom", lastEntry(t, buf)["error"])
}

func TestStructuredFieldTypes(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	l.DebugWithFields("typed", map[string]interface{}{
		"str":  "x",
		"ok":   true,
		"size": int64(42),
		"wait": 2 * time.Second,
		"tags": []string{"a", "b"},
	})

	entry := lastEntry(t, buf)
	assert.Equal(t, "x", entry["str"])
	assert.Equal(t, true, entry["ok"])
	assert.Equal(t, float64(42), entry["size"])
	assert.Equal(t, float64(2000), entry["wait"])
	assert.Equal(t, []interface{}{"a", "b"}, entry["tags"])
}

func TestGlobalLogger(t *testing.T) {
	prev := GetLogger()
	defer SetLogger(prev)

	test := NewTestLogger()
	SetLogger(test)
	GetLogger().Info("through global")

	assert.True(t, test.HasMessage("through global"))
}

func TestLogRateLimit(t *testing.T) {
	log := NewTestLogger()

	LogRateLimit(log, "min_delay", time.Second)
	LogRateLimit(log, "backoff", 8*time.Second)

	assert.Len(t, log.GetMessagesByLevel("DEBUG"), 1)
	warns := log.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "backoff", warns[0].Fields["policy"])
	assert.Equal(t, 8*time.Second, warns[0].Fields["wait"])
}

func TestLogRequest(t *testing.T) {
	log := NewTestLogger()

	LogRequest(log, "GET", "https://lucida.to/search", 200, time.Millisecond)
	LogRequest(log, "GET", "https://lucida.to/search", 429, time.Millisecond)
	LogRequest(log, "GET", "https://lucida.to/search", 503, time.Millisecond)

	assert.Len(t, log.GetMessagesByLevel("DEBUG"), 1)
	assert.Len(t, log.GetMessagesByLevel("WARN"), 2)
	assert.Equal(t, []interface{}{200, 429, 503}, log.FieldValues("status"))
}

func TestLogDownload(t *testing.T) {
	log := NewTestLogger()

	LogDownload(log, "https://lucida.to/t/1", "/tmp/a.flac", 10, nil)
	LogDownload(log, "https://lucida.to/t/2", "", 0, errors.New("no link"))

	assert.True(t, log.HasMessage("Download completed"))
	assert.True(t, log.HasError())
	errs := log.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0].Error, "no link")
	assert.Equal(t, "https://lucida.to/t/2", errs[0].Fields["track_url"])
}

func TestTestLoggerChildrenShareRecorder(t *testing.T) {
	log := NewTestLogger()

	log.WithField("a", 1).WithError(errors.New("x")).WithField("b", 2).Warn("nested")

	msgs := log.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, msgs[0].Fields)
	assert.EqualError(t, msgs[0].Error, "x")
	assert.Contains(t, log.String(), "[WARN] nested")

	log.Clear()
	assert.Empty(t, log.GetMessages())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.WithField("k", "v").WithError(errors.New("x")).Error("ignored")
	assert.NotNil(t, l.GetZerolog())
}
