package history

import (
	"context"
	"database/sql"
	"time"

	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/report"
)

// RegionAnomalies summarises mismatches for one region.
type RegionAnomalies struct {
	ResourceType string    `json:"resource_type"`
	Region       string    `json:"region"`
	Count        int       `json:"count"`
	LastSeen     time.Time `json:"last_seen"`
}

// AnomalySummary groups stored anomalies by region, most frequent first.
func (s *Store) AnomalySummary(ctx context.Context) ([]RegionAnomalies, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT resource_type, region, COUNT(*), MAX(timestamp) FROM reports
		 WHERE kind = ? GROUP BY resource_type, region
		 ORDER BY COUNT(*) DESC, resource_type, region`,
		string(report.KindAnomaly),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, ErrQueryFailed.Message()).Build()
	}
	defer rows.Close()

	var out []RegionAnomalies
	for rows.Next() {
		var (
			ra     RegionAnomalies
			rt     sql.NullString
			region sql.NullString
			last   int64
		)
		if err := rows.Scan(&rt, &region, &ra.Count, &last); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryStorage, ErrQueryFailed.Message()).Build()
		}
		ra.ResourceType = rt.String
		ra.Region = region.String
		ra.LastSeen = time.Unix(0, last)
		out = append(out, ra)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, ErrQueryFailed.Message()).Build()
	}
	return out, nil
}
