package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyMode       = "mode"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPage       = "page"
	KeyAsset      = "asset"
	KeyHint       = "hint"
	KeyStrategy   = "strategy"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyOutput     = "output"
	KeySize       = "size"
	KeyLimit      = "limit"
	KeyCount      = "count"
	KeyAddr       = "addr"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Page(name string) slog.Attr      { return slog.String(KeyPage, name) }
func Asset(ref string) slog.Attr      { return slog.String(KeyAsset, ref) }
func Hint(h string) slog.Attr         { return slog.String(KeyHint, h) }
func Strategy(s string) slog.Attr     { return slog.String(KeyStrategy, s) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Output(o string) slog.Attr       { return slog.String(KeyOutput, o) }
func Size(n int64) slog.Attr          { return slog.Int64(KeySize, n) }
func Limit(n int64) slog.Attr         { return slog.Int64(KeyLimit, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
