package services_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
)

type MockGeocodeProvider struct {
	mock.Mock
}

func (m *MockGeocodeProvider) Search(ctx context.Context, query string, limit int) ([]entities.Place, error) {
	args := m.Called(ctx, query, limit)
	places, _ := args.Get(0).([]entities.Place)
	return places, args.Error(1)
}

func (m *MockGeocodeProvider) Reverse(ctx context.Context, lat, lon float64) (*entities.Place, error) {
	args := m.Called(ctx, lat, lon)
	place, _ := args.Get(0).(*entities.Place)
	return place, args.Error(1)
}

type MockEventProvider struct {
	mock.Mock
}

func (m *MockEventProvider) SearchEvents(ctx context.Context, q entities.EventQuery) ([]entities.EventRecord, error) {
	args := m.Called(ctx, q)
	events, _ := args.Get(0).([]entities.EventRecord)
	return events, args.Error(1)
}

func (m *MockEventProvider) GetEvent(ctx context.Context, id string) (*entities.EventRecord, error) {
	args := m.Called(ctx, id)
	event, _ := args.Get(0).(*entities.EventRecord)
	return event, args.Error(1)
}

// RecordingEventBus keeps published notifications in memory
type RecordingEventBus struct {
	mu        sync.Mutex
	published []*entities.EventsNotification
	err       error
}

func (b *RecordingEventBus) Publish(ctx context.Context, channel string, event *entities.EventsNotification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, event)
	return nil
}

func (b *RecordingEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.EventsNotification, error) {
	return make(chan *entities.EventsNotification), nil
}

func (b *RecordingEventBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *RecordingEventBus) Close() error { return nil }

func (b *RecordingEventBus) Published() []*entities.EventsNotification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*entities.EventsNotification(nil), b.published...)
}

type RecordingAnalyticsRepo struct {
	mu     sync.Mutex
	events []*entities.SearchEvent
}

func (r *RecordingAnalyticsRepo) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *RecordingAnalyticsRepo) GetZeroResultQueries(ctx context.Context, kind entities.SearchKind, limit int) ([]*entities.SearchEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.SearchEvent
	for _, e := range r.events {
		if e.Kind == kind && e.ResultCount == 0 {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *RecordingAnalyticsRepo) Events() []*entities.SearchEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entities.SearchEvent(nil), r.events...)
}
