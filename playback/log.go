// SPDX-License-Identifier: EPL-2.0

package playback

import "log/slog"

// LevelCritical marks scheduling anomalies: stimuli that could not be played
// as requested.
const LevelCritical = slog.LevelError + 4

// ReplaceLevelName renames LevelCritical to "CRITICAL" in handler output. It
// is meant for slog.HandlerOptions.ReplaceAttr.
func ReplaceLevelName(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level == LevelCritical {
		a.Value = slog.StringValue("CRITICAL")
	}
	return a
}
