package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/repositories"
	"github.com/zatekoja/eventfinder/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
)

const searchAnalyticsTable = "search_analytics"

const searchAnalyticsSchema = `
CREATE TABLE IF NOT EXISTS search_analytics (
	id           UUID PRIMARY KEY,
	kind         TEXT NOT NULL,
	query        TEXT NOT NULL DEFAULT '',
	latitude     DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude    DOUBLE PRECISION NOT NULL DEFAULT 0,
	radius_km    INTEGER NOT NULL DEFAULT 0,
	result_count INTEGER NOT NULL,
	latency_ms   INTEGER NOT NULL,
	failed       BOOLEAN NOT NULL DEFAULT FALSE,
	session_id   TEXT,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_search_analytics_zero
	ON search_analytics (kind, created_at DESC) WHERE result_count = 0;
`

// SearchAnalyticsAdapter records geocoding and event searches in Postgres
type SearchAnalyticsAdapter struct {
	db      *sql.DB
	qb      *goqu.Database
	metrics *observability.Metrics
}

var _ repositories.SearchAnalyticsRepository = (*SearchAnalyticsAdapter)(nil)

// NewSearchAnalyticsAdapter creates a new search analytics adapter
func NewSearchAnalyticsAdapter(client *postgres.Client, metrics *observability.Metrics) *SearchAnalyticsAdapter {
	return NewSearchAnalyticsAdapterFromDB(client.DB(), metrics)
}

// NewSearchAnalyticsAdapterFromDB builds the adapter over an open pool
func NewSearchAnalyticsAdapterFromDB(db *sql.DB, metrics *observability.Metrics) *SearchAnalyticsAdapter {
	return &SearchAnalyticsAdapter{
		db:      db,
		qb:      goqu.New("postgres", db),
		metrics: metrics,
	}
}

// EnsureSchema creates the analytics table when it does not exist
func (a *SearchAnalyticsAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, searchAnalyticsSchema); err != nil {
		return apperrors.NewInternalError("failed to create search analytics schema", err)
	}
	return nil
}

// LogEvent inserts a search event, assigning an id and timestamp if missing
func (a *SearchAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	record := goqu.Record{
		"id":           event.ID,
		"kind":         string(event.Kind),
		"query":        event.Query,
		"latitude":     event.Latitude,
		"longitude":    event.Longitude,
		"radius_km":    event.RadiusKm,
		"result_count": event.ResultCount,
		"latency_ms":   event.LatencyMs,
		"failed":       event.Failed,
		"session_id":   event.SessionID,
		"created_at":   event.CreatedAt,
	}

	query, args, err := a.qb.Insert(searchAnalyticsTable).Prepared(true).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build search event insert query", err)
	}

	start := time.Now()
	_, err = a.db.ExecContext(ctx, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, "search_analytics.insert", time.Since(start))
	if err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}
	return nil
}

// GetZeroResultQueries returns the most recent successful searches of kind
// that found nothing
func (a *SearchAnalyticsAdapter) GetZeroResultQueries(ctx context.Context, kind entities.SearchKind, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query, args, err := a.qb.From(searchAnalyticsTable).
		Prepared(true).
		Select("id", "kind", "query", "latitude", "longitude", "radius_km", "result_count", "latency_ms", "failed", "session_id", "created_at").
		Where(goqu.Ex{
			"kind":         string(kind),
			"result_count": 0,
			"failed":       false,
		}).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build zero result query", err)
	}

	start := time.Now()
	rows, err := a.db.QueryContext(ctx, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, "search_analytics.zero_results", time.Since(start))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result queries", err)
	}
	defer rows.Close()

	events := []*entities.SearchEvent{}
	for rows.Next() {
		e := &entities.SearchEvent{}
		var kindCol string
		var session sql.NullString
		if err := rows.Scan(
			&e.ID,
			&kindCol,
			&e.Query,
			&e.Latitude,
			&e.Longitude,
			&e.RadiusKm,
			&e.ResultCount,
			&e.LatencyMs,
			&e.Failed,
			&session,
			&e.CreatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan search event", err)
		}
		e.Kind = entities.SearchKind(kindCol)
		e.SessionID = session.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read search events", err)
	}

	return events, nil
}
