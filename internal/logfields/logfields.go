package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyResourceType = "resource_type"
	KeyRegion       = "region"
	KeyEntryID      = "entry_id"
	KeyAddress      = "address"
	KeyLength       = "length"
	KeyBytes        = "bytes"
	KeyBudget       = "byte_budget"
	KeyChecksum     = "checksum"
	KeyExpected     = "expected"
	KeyActual       = "actual"
	KeyState        = "state"
	KeyTask         = "task"
	KeyPass         = "pass"
	KeyBackend      = "backend"
	KeyReportID     = "report_id"
	KeyPath         = "path"
	KeyMethod       = "method"
	KeyStatus       = "status"
	KeyDurationMS   = "duration_ms"
	KeyRemoteAddr   = "remote_addr"
	KeyError        = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func ResourceType(t string) slog.Attr { return slog.String(KeyResourceType, t) }
func Region(name string) slog.Attr    { return slog.String(KeyRegion, name) }
func EntryID(id int) slog.Attr        { return slog.Int(KeyEntryID, id) }
func Address(a uint64) slog.Attr      { return slog.Uint64(KeyAddress, a) }
func Length(n uint64) slog.Attr       { return slog.Uint64(KeyLength, n) }
func Bytes(n uint64) slog.Attr        { return slog.Uint64(KeyBytes, n) }
func Budget(n uint64) slog.Attr       { return slog.Uint64(KeyBudget, n) }
func Checksum(v uint64) slog.Attr     { return slog.Uint64(KeyChecksum, v) }
func Expected(v uint64) slog.Attr     { return slog.Uint64(KeyExpected, v) }
func Actual(v uint64) slog.Attr       { return slog.Uint64(KeyActual, v) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Task(kind string) slog.Attr      { return slog.String(KeyTask, kind) }
func Pass(n uint64) slog.Attr         { return slog.Uint64(KeyPass, n) }
func Backend(name string) slog.Attr   { return slog.String(KeyBackend, name) }
func ReportID(id string) slog.Attr    { return slog.String(KeyReportID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
