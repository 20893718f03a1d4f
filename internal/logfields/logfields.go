package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPage       = "page"
	KeyChapter    = "chapter"
	KeyStep       = "step"
	KeyStage      = "stage"
	KeySelector   = "selector"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyCommand    = "command"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Page(path string) slog.Attr      { return slog.String(KeyPage, path) }
func Chapter(id string) slog.Attr     { return slog.String(KeyChapter, id) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Selector(sel string) slog.Attr   { return slog.String(KeySelector, sel) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Command(name string) slog.Attr   { return slog.String(KeyCommand, name) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
