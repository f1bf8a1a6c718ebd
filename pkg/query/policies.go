// pkg/query/policies.go
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// PolicyActivity is one row of the jurisdiction activity report: an active,
// recently updated policy together with the average update age of its
// geography over the trailing year.
type PolicyActivity struct {
	ID                 string    `db:"id"`
	Name               string    `db:"name"`
	Geography          string    `db:"geography"`
	Status             string    `db:"status"`
	UpdatedDate        time.Time `db:"updated_date"`
	AvgDaysSinceUpdate float64   `db:"avg_days_since_update"`
}

// Service runs reporting queries against the policies table.
type Service struct {
	db     *sqlx.DB
	logger *zap.Logger
	table  string
}

// NewService creates a query service over the given policies table
// (schema-qualified).
func NewService(db *sqlx.DB, logger *zap.Logger, table string) *Service {
	return &Service{
		db:     db,
		logger: logger.Named("policy-query"),
		table:  table,
	}
}

// ActiveForJurisdiction returns active policies matching the jurisdiction
// that were updated in the last 90 days, newest first, each joined with the
// per-geography average days since update over the past year.
func (s *Service) ActiveForJurisdiction(ctx context.Context, jurisdiction string) ([]PolicyActivity, error) {
	query := fmt.Sprintf(`
		WITH geography_lag AS (
			SELECT geography,
			       AVG(EXTRACT(EPOCH FROM (NOW() - updated_date)) / 86400) AS avg_days_since_update
			FROM %[1]s
			WHERE updated_date IS NOT NULL
			  AND updated_date >= NOW() - INTERVAL '1 year'
			GROUP BY geography
		)
		SELECT p.id, p.name, p.geography, p.status, p.updated_date,
		       g.avg_days_since_update
		FROM %[1]s p
		JOIN geography_lag g ON g.geography = p.geography
		WHERE p.geography = $1
		  AND p.status = 'active'
		  AND p.updated_date IS NOT NULL
		  AND p.updated_date >= NOW() - INTERVAL '90 days'
		ORDER BY p.updated_date DESC
	`, s.table)

	var results []PolicyActivity
	if err := s.db.SelectContext(ctx, &results, query, jurisdiction); err != nil {
		return nil, fmt.Errorf("querying active policies for %q: %w", jurisdiction, err)
	}

	s.logger.Info("Ran jurisdiction activity report",
		zap.String("jurisdiction", jurisdiction),
		zap.Int("policies", len(results)))
	return results, nil
}
