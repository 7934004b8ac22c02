package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyConfigPath  = "config_path"
	KeyPath        = "path"
	KeyNavPath     = "nav_path"
	KeyKey         = "key"
	KeyReloadID    = "reload_id"
	KeyTrigger     = "trigger"
	KeyFingerprint = "fingerprint"
	KeyPlugin      = "plugin"
	KeyPages       = "pages"
	KeyLeaves      = "leaves"
	KeyNodes       = "nodes"
	KeyDurationMS  = "duration_ms"
	KeySubject     = "subject"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func ConfigPath(p string) slog.Attr    { return slog.String(KeyConfigPath, p) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func NavPath(p string) slog.Attr       { return slog.String(KeyNavPath, p) }
func Key(k string) slog.Attr           { return slog.String(KeyKey, k) }
func ReloadID(id string) slog.Attr     { return slog.String(KeyReloadID, id) }
func Trigger(t string) slog.Attr       { return slog.String(KeyTrigger, t) }
func Fingerprint(f string) slog.Attr   { return slog.String(KeyFingerprint, f) }
func Plugin(name string) slog.Attr     { return slog.String(KeyPlugin, name) }
func Pages(n int) slog.Attr            { return slog.Int(KeyPages, n) }
func Leaves(n int) slog.Attr           { return slog.Int(KeyLeaves, n) }
func Nodes(n int) slog.Attr            { return slog.Int(KeyNodes, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Subject(s string) slog.Attr       { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
