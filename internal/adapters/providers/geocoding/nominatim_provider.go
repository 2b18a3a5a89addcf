package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mrz1836/go-sanitize"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/zatekoja/eventfinder/internal/adapters/providers/upstream"
	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
	"github.com/zatekoja/eventfinder/pkg/config"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

const (
	nominatimBaseURL       = "https://nominatim.openstreetmap.org"
	defaultUserAgent       = "EventFinder/1.0"
	defaultSearchCacheTTL  = time.Hour
	defaultReverseCacheTTL = 24 * time.Hour
	reverseZoom            = "18"
	searchCachePrefix      = "geo:v1:search"
	reverseCachePrefix     = "geo:v1:reverse"
)

// NominatimProvider implements GeocodeProvider against the OpenStreetMap
// Nominatim API.
type NominatimProvider struct {
	baseURL    string
	client     *upstream.Client
	cache      *upstream.Cache
	limiter    *rate.Limiter
	group      singleflight.Group
	searchTTL  time.Duration
	reverseTTL time.Duration
}

// NewNominatimProvider creates a provider from configuration. The limiter
// enforces Nominatim's request rate policy across all callers.
func NewNominatimProvider(cfg *config.GeocodingConfig, cache providers.CacheProvider, metrics *observability.Metrics) *NominatimProvider {
	p := NewNominatimProviderWithOptions(cfg.UserAgent, cache, cfg.BaseURL, &http.Client{Timeout: cfg.Timeout})
	if cfg.RequestsPerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	if cfg.SearchCacheTTL > 0 {
		p.searchTTL = cfg.SearchCacheTTL
	}
	if cfg.ReverseCacheTTL > 0 {
		p.reverseTTL = cfg.ReverseCacheTTL
	}
	p.client.SetMetrics(metrics)
	p.cache = upstream.NewCache(cache, metrics)
	return p
}

// NewNominatimProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewNominatimProviderWithOptions(userAgent string, cache providers.CacheProvider, baseURL string, httpClient *http.Client) *NominatimProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = nominatimBaseURL
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	header := http.Header{}
	header.Set("User-Agent", userAgent)

	return &NominatimProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     upstream.NewClient("nominatim", httpClient, header),
		cache:      upstream.NewCache(cache, nil),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		searchTTL:  defaultSearchCacheTTL,
		reverseTTL: defaultReverseCacheTTL,
	}
}

var _ providers.GeocodeProvider = (*NominatimProvider)(nil)

type nominatimPlace struct {
	PlaceID     int64  `json:"place_id"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Type        string `json:"type"`
	Class       string `json:"class"`
	Error       string `json:"error"`
}

// Search returns up to limit candidates for a free-text query
func (p *NominatimProvider) Search(ctx context.Context, query string, limit int) ([]entities.Place, error) {
	query = sanitize.SingleLine(strings.TrimSpace(query))
	if query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}
	if limit <= 0 {
		limit = 10
	}

	key := upstream.CacheKey(searchCachePrefix, strings.ToLower(query), strconv.Itoa(limit))
	var cached []entities.Place
	if p.cache.Load(ctx, searchCachePrefix, key, &cached) {
		return cached, nil
	}

	v, err := upstream.Shared(ctx, &p.group, key, func(ctx context.Context) ([]entities.Place, error) {
		params := url.Values{}
		params.Set("format", "json")
		params.Set("q", query)
		params.Set("limit", strconv.Itoa(limit))

		var raw []nominatimPlace
		if err := p.get(ctx, "search", "/search", params, &raw); err != nil {
			return nil, err
		}

		places := make([]entities.Place, 0, len(raw))
		for _, r := range raw {
			place, ok := r.toPlace()
			if !ok {
				observability.LoggerFromContext(ctx).Debug().Int64("place_id", r.PlaceID).Msg("skipping place with invalid coordinates")
				continue
			}
			places = append(places, place)
		}
		if len(places) > limit {
			places = places[:limit]
		}
		p.cache.Store(ctx, key, places, p.searchTTL)
		return places, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Reverse returns the place nearest to the coordinates
func (p *NominatimProvider) Reverse(ctx context.Context, lat, lon float64) (*entities.Place, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, apperrors.NewValidationError("latitude must be within ±90 and longitude within ±180")
	}

	key := upstream.CacheKey(reverseCachePrefix, fmt.Sprintf("%.5f,%.5f", lat, lon))
	var cached entities.Place
	if p.cache.Load(ctx, reverseCachePrefix, key, &cached) {
		return &cached, nil
	}

	v, err := upstream.Shared(ctx, &p.group, key, func(ctx context.Context) (*entities.Place, error) {
		params := url.Values{}
		params.Set("format", "json")
		params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
		params.Set("zoom", reverseZoom)
		params.Set("addressdetails", "1")

		var raw nominatimPlace
		if err := p.get(ctx, "reverse", "/reverse", params, &raw); err != nil {
			return nil, err
		}
		if raw.Error != "" {
			return nil, apperrors.NewNotFoundError("no place found at coordinates")
		}
		place, ok := raw.toPlace()
		if !ok {
			return nil, apperrors.NewExternalError("nominatim returned invalid coordinates", nil)
		}
		p.cache.Store(ctx, key, place, p.reverseTTL)
		return &place, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (p *NominatimProvider) get(ctx context.Context, operation, path string, params url.Values, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return apperrors.NewExternalError("nominatim rate limit wait aborted", err)
	}
	return p.client.GetJSON(ctx, operation, p.baseURL+path+"?"+params.Encode(), out)
}

func (r nominatimPlace) toPlace() (entities.Place, bool) {
	lat, errLat := strconv.ParseFloat(r.Lat, 64)
	lon, errLon := strconv.ParseFloat(r.Lon, 64)
	if errLat != nil || errLon != nil || !geo.ValidCoordinates(lat, lon) {
		return entities.Place{}, false
	}
	return entities.Place{
		PlaceID:     r.PlaceID,
		DisplayName: r.DisplayName,
		Latitude:    lat,
		Longitude:   lon,
		Type:        r.Type,
		Class:       r.Class,
	}, true
}
