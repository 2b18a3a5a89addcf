package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventfinder/internal/api/views"
	"github.com/zatekoja/eventfinder/internal/application/services"
	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/pkg/config"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Search(ctx context.Context, query string, limit int) ([]entities.Place, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Place), args.Error(1)
}

func (m *MockGeocoder) Reverse(ctx context.Context, lat, lon float64) (*entities.Place, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Place), args.Error(1)
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) SearchEvents(ctx context.Context, q entities.EventQuery) ([]entities.EventRecord, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.EventRecord), args.Error(1)
}

func (m *MockEvents) GetEvent(ctx context.Context, id string) (*entities.EventRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EventRecord), args.Error(1)
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		MinRadiusKm:     1,
		MaxRadiusKm:     160,
		DefaultRadiusKm: 40,
		SuggestionLimit: 10,
		MinQueryLength:  2,
		DefaultLat:      52.3676,
		DefaultLon:      4.9041,
		DefaultName:     "Amsterdam",
	}
}

func newEventService(events *MockEvents) *services.EventService {
	return services.NewEventService(events, nil, nil, geo.DefaultRadiusBounds())
}

func newLocationService(geocoder *MockGeocoder) *services.LocationService {
	return services.NewLocationService(geocoder, nil, testSearchConfig())
}

func renderer(t *testing.T) *views.Renderer {
	t.Helper()
	r, err := views.New()
	require.NoError(t, err)
	return r
}

func floatPtr(f float64) *float64 { return &f }

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}
