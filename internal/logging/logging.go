// Package logging adapts log/slog to the ghauth.Logger interface.
package logging

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/fivetwenty-io/ghauth/internal/constants"
)

// Logger writes ghauth log entries through slog.
type Logger struct {
	logger *slog.Logger
}

// ParseLevel maps a level name to a slog level; unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing text (or JSON when format is "json") to w.
func New(w io.Writer, level slog.Level, format string) *Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler

	switch format {
	case constants.FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{logger: slog.New(handler)}
}

func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.log(slog.LevelDebug, msg, fields)
}

func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.log(slog.LevelInfo, msg, fields)
}

func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.log(slog.LevelWarn, msg, fields)
}

func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.log(slog.LevelError, msg, fields)
}

func (l *Logger) log(level slog.Level, msg string, fields map[string]interface{}) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, attr(key, fields[key]))
	}

	l.logger.LogAttrs(ctx, level, Sanitize(msg), attrs...)
}

func attr(key string, value interface{}) slog.Attr {
	if isSecret(key) {
		return slog.String(key, constants.MaskedSecret)
	}

	switch v := value.(type) {
	case string:
		return slog.String(key, Sanitize(v))
	case error:
		return slog.String(key, Sanitize(v.Error()))
	default:
		return slog.Any(key, v)
	}
}

var secretKeys = []string{"password", "token", "secret", "authorization", "otp", "code"}

func isSecret(key string) bool {
	key = strings.ToLower(key)

	// status_code is not a one-time code
	if key == "status_code" {
		return false
	}

	for _, secret := range secretKeys {
		if strings.Contains(key, secret) {
			return true
		}
	}

	return false
}

// Sanitize replaces control characters so untrusted values cannot forge log
// lines. Tabs are kept.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' {
			return '_'
		}

		if r >= 0x7f && r <= 0x9f {
			return '_'
		}

		return r
	}, s)
}
