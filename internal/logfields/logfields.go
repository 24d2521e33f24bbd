package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyFile       = "file"
	KeyLine       = "line"
	KeyPath       = "path"
	KeyPage       = "page"
	KeyFragments  = "fragments"
	KeyComments   = "comments"
	KeyFiles      = "files"
	KeyConverter  = "converter"
	KeyStyle      = "style"
	KeyWorkers    = "workers"
	KeyCacheHit   = "cache_hit"
	KeySubject    = "subject"
	KeyEvent      = "event"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Line(n int) slog.Attr            { return slog.Int(KeyLine, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Page(p string) slog.Attr         { return slog.String(KeyPage, p) }
func Fragments(n int) slog.Attr       { return slog.Int(KeyFragments, n) }
func Comments(n int) slog.Attr        { return slog.Int(KeyComments, n) }
func Files(n int) slog.Attr           { return slog.Int(KeyFiles, n) }
func Converter(name string) slog.Attr { return slog.String(KeyConverter, name) }
func Style(s string) slog.Attr        { return slog.String(KeyStyle, s) }
func Workers(n int) slog.Attr         { return slog.Int(KeyWorkers, n) }
func CacheHit(hit bool) slog.Attr     { return slog.Bool(KeyCacheHit, hit) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Event(name string) slog.Attr     { return slog.String(KeyEvent, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Since is DurationMS for the time elapsed from start.
func Since(start time.Time) slog.Attr {
	return DurationMS(float64(time.Since(start).Microseconds()) / 1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
