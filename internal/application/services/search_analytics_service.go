package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/repositories"
)

type sessionKey struct{}

// WithSessionID tags ctx with the browser or client session making requests
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionIDFromContext returns the session id set by WithSessionID
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// SearchAnalyticsService records upstream searches without slowing the
// request that made them. A nil service or repository disables tracking.
type SearchAnalyticsService struct {
	repo repositories.SearchAnalyticsRepository
	wg   sync.WaitGroup
}

func NewSearchAnalyticsService(repo repositories.SearchAnalyticsRepository) *SearchAnalyticsService {
	return &SearchAnalyticsService{repo: repo}
}

// TrackSearch logs event in the background
func (s *SearchAnalyticsService) TrackSearch(event *entities.SearchEvent) {
	if s == nil || s.repo == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// the request context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.repo.LogEvent(ctx, event); err != nil {
			log.Warn().Err(err).Str("kind", string(event.Kind)).Msg("failed to log search event")
		}
	}()
}

// Wait blocks until in-flight writes finish
func (s *SearchAnalyticsService) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

// Enabled reports whether searches are being recorded
func (s *SearchAnalyticsService) Enabled() bool {
	return s != nil && s.repo != nil
}

func (s *SearchAnalyticsService) GetZeroResultQueries(ctx context.Context, kind entities.SearchKind, limit int) ([]*entities.SearchEvent, error) {
	return s.repo.GetZeroResultQueries(ctx, kind, limit)
}
