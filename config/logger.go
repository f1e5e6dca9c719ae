// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ik5/psyaudio/playback"
)

var ErrInvalidLogLevel = errors.New("log level must be one of none, error, warn, info, debug")

// ParseLogLevel maps a configured level name to a slog level. ok is false
// for "none".
func ParseLogLevel(name string) (level slog.Level, ok bool, err error) {
	switch name {
	case "none":
		return 0, false, nil
	case "error":
		return slog.LevelError, true, nil
	case "warn":
		return slog.LevelWarn, true, nil
	case "info":
		return slog.LevelInfo, true, nil
	case "debug":
		return slog.LevelDebug, true, nil
	}
	return 0, false, fmt.Errorf("%w: %q", ErrInvalidLogLevel, name)
}

// ConfigureDefaultLogger installs the default slog logger. With an empty
// logFile it writes text to stdout, otherwise JSON to the truncated file,
// which is returned so the caller can close it. Level "none" discards all
// records. Records at playback.LevelCritical are labelled CRITICAL.
func ConfigureDefaultLogger(logLevel, logFile string, opts slog.HandlerOptions) (*os.File, error) {
	level, ok, err := ParseLogLevel(logLevel)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return nil, nil
	}
	opts.Level = level
	if next := opts.ReplaceAttr; next != nil {
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			return next(groups, playback.ReplaceLevelName(groups, a))
		}
	} else {
		opts.ReplaceAttr = playback.ReplaceLevelName
	}

	if logFile == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &opts)))
		return nil, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, &opts)))
	return f, nil
}
