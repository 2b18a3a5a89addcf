package ticketing

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

// MockEventProvider generates a few events around the query center. It
// backs local development when EVENTS_PROVIDER=mock.
type MockEventProvider struct {
	mu   sync.Mutex
	byID map[string]entities.EventRecord
}

// NewMockEventProvider creates a new mock event provider
func NewMockEventProvider() providers.EventProvider {
	return &MockEventProvider{byID: make(map[string]entities.EventRecord)}
}

// SearchEvents returns three events offset north-east of the center
func (m *MockEventProvider) SearchEvents(ctx context.Context, q entities.EventQuery) ([]entities.EventRecord, error) {
	if !geo.ValidCoordinates(q.Latitude, q.Longitude) {
		return nil, apperrors.NewValidationError("latitude must be within ±90 and longitude within ±180")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	names := []string{"Open Air Cinema", "Canal Jazz Night", "Indie Showcase"}
	events := make([]entities.EventRecord, 0, len(names))
	for i, name := range names {
		lat := q.Latitude + 0.01*float64(i+1)
		lon := q.Longitude + 0.015*float64(i+1)
		id := fmt.Sprintf("mock-%.3f-%.3f-%d", q.Latitude, q.Longitude, i)
		e := entities.EventRecord{
			ID:           id,
			Name:         name,
			Venue:        entities.Venue{Name: fmt.Sprintf("Venue %d", i+1), Latitude: &lat, Longitude: &lon},
			TicketStatus: entities.TicketStatusOnSale,
			PriceRange:   &entities.PriceRange{Min: decimal.NewFromInt(int64(10 * (i + 1))), Max: decimal.NewFromInt(int64(25 * (i + 1))), Currency: "EUR"},
			Genre:        "Music",
		}
		m.byID[id] = e
		events = append(events, e)
	}
	return events, nil
}

// GetEvent returns an event produced by an earlier search
func (m *MockEventProvider) GetEvent(ctx context.Context, id string) (*entities.EventRecord, error) {
	m.mu.Lock()
	e, ok := m.byID[id]
	m.mu.Unlock()
	if !ok {
		return nil, apperrors.NewNotFoundError("event not found")
	}
	return &e, nil
}
