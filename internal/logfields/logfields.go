package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeyRepo        = "repository"
	KeyURL         = "url"
	KeyPath        = "path"
	KeySlug        = "slug"
	KeyVersionType = "version_type"
	KeyCommit      = "commit"
	KeyOutputPath  = "output_path"
	KeyConfigPath  = "config_path"
	KeyBuilder     = "builder"
	KeyStrategy    = "strategy"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyCount       = "count"
	KeyAttempt     = "attempt"
	KeySchedule    = "schedule_name"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Repository(r string) slog.Attr    { return slog.String(KeyRepo, r) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Slug(s string) slog.Attr          { return slog.String(KeySlug, s) }
func VersionType(t string) slog.Attr   { return slog.String(KeyVersionType, t) }
func Commit(c string) slog.Attr        { return slog.String(KeyCommit, c) }
func OutputPath(p string) slog.Attr    { return slog.String(KeyOutputPath, p) }
func ConfigPath(p string) slog.Attr    { return slog.String(KeyConfigPath, p) }
func Builder(kind string) slog.Attr    { return slog.String(KeyBuilder, kind) }
func Strategy(s string) slog.Attr      { return slog.String(KeyStrategy, s) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func ScheduleName(n string) slog.Attr  { return slog.String(KeySchedule, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
