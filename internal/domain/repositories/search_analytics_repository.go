package repositories

import (
	"context"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
)

// SearchAnalyticsRepository stores upstream search outcomes
type SearchAnalyticsRepository interface {
	LogEvent(ctx context.Context, event *entities.SearchEvent) error
	GetZeroResultQueries(ctx context.Context, kind entities.SearchKind, limit int) ([]*entities.SearchEvent, error)
}
