// Package history keeps a durable log of scanner reports in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/csmon/internal/catalog"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/report"
)

// Entry is one stored report.
type Entry struct {
	Seq          int64           `json:"seq"`
	ReportID     string          `json:"report_id"`
	Kind         report.Kind     `json:"kind"`
	ResourceType string          `json:"resource_type,omitempty"`
	Region       string          `json:"region,omitempty"`
	At           time.Time       `json:"at"`
	Payload      json.RawMessage `json:"payload"`
}

// Query filters Recent. Zero values match everything.
type Query struct {
	Kind         report.Kind
	ResourceType string
	Limit        int
}

// Store persists reports.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the history database at dbPath. Use ":memory:" for an
// in-memory database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, ErrDatabaseOpenFailed.Message()).
			WithContext("path", dbPath).Build()
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, ErrInitializeSchemaFailed.Message()).Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		resource_type TEXT,
		region TEXT,
		timestamp INTEGER NOT NULL,
		payload BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_kind ON reports(kind);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON reports(timestamp);
	CREATE INDEX IF NOT EXISTS idx_reports_region ON reports(resource_type, region);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores ev.
func (s *Store) Append(ctx context.Context, ev report.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, ErrAppendFailed.Message()).Build()
	}
	rt, region := subject(ev)
	meta := ev.Header()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO reports (report_id, kind, resource_type, region, timestamp, payload) VALUES (?, ?, ?, ?, ?, ?)",
		meta.ID, string(ev.Kind()), rt, region, meta.At.UnixNano(), payload,
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, ErrAppendFailed.Message()).
			WithContext("report_id", meta.ID).Build()
	}
	return nil
}

// Recent returns the newest entries first.
func (s *Store) Recent(ctx context.Context, q Query) ([]Entry, error) {
	if q.Limit <= 0 {
		q.Limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, report_id, kind, resource_type, region, timestamp, payload FROM reports
		 WHERE (? = '' OR kind = ?) AND (? = '' OR resource_type = ?)
		 ORDER BY seq DESC LIMIT ?`,
		string(q.Kind), string(q.Kind), q.ResourceType, q.ResourceType, q.Limit,
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, ErrQueryFailed.Message()).Build()
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Range returns entries recorded in [start, end], oldest first.
func (s *Store) Range(ctx context.Context, start, end time.Time) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, report_id, kind, resource_type, region, timestamp, payload FROM reports
		 WHERE timestamp >= ? AND timestamp <= ? ORDER BY seq`,
		start.UnixNano(), end.UnixNano(),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, ErrQueryFailed.Message()).Build()
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			kind   string
			rt     sql.NullString
			region sql.NullString
			ts     int64
			buf    []byte
		)
		if err := rows.Scan(&e.Seq, &e.ReportID, &kind, &rt, &region, &ts, &buf); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryStorage, ErrQueryFailed.Message()).Build()
		}
		e.Kind = report.Kind(kind)
		e.ResourceType = rt.String
		e.Region = region.String
		e.At = time.Unix(0, ts)
		e.Payload = buf
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, ErrQueryFailed.Message()).Build()
	}
	return out, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func subject(ev report.Event) (any, any) {
	var (
		rt     catalog.ResourceType
		region string
	)
	switch e := ev.(type) {
	case report.Anomaly:
		rt, region = e.ResourceType, e.Region
	case report.RecomputeComplete:
		rt, region = e.ResourceType, e.Region
	case report.TaskFailed:
		if e.Region == "" {
			return nil, nil
		}
		rt, region = e.ResourceType, e.Region
	case report.EnableChanged:
		if e.Scope == report.ScopeMaster {
			return nil, nil
		}
		rt, region = e.ResourceType, e.Region
	default:
		return nil, nil
	}
	if region == "" {
		return rt.String(), nil
	}
	return rt.String(), region
}
