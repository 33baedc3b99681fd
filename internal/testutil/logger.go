package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// LogCapture collects JSON log records written through Logger.
type LogCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer for the slog handler.
func (c *LogCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// CaptureLogger returns a debug-level JSON logger and its capture.
func CaptureLogger() (*slog.Logger, *LogCapture) {
	c := &LogCapture{}
	h := slog.NewJSONHandler(c, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), c
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Records decodes every captured line. Lines that fail to decode are skipped.
func (c *LogCapture) Records() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]any
	for _, line := range bytes.Split(c.buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err == nil {
			out = append(out, rec)
		}
	}
	return out
}

// Messages returns the msg field of every record at level.
func (c *LogCapture) Messages(level slog.Level) []string {
	var out []string
	for _, rec := range c.Records() {
		if rec[slog.LevelKey] == level.String() {
			msg, _ := rec[slog.MessageKey].(string)
			out = append(out, msg)
		}
	}
	return out
}
