package ticketing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/zatekoja/eventfinder/internal/adapters/providers/upstream"
	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
	"github.com/zatekoja/eventfinder/internal/infrastructure/observability"
	"github.com/zatekoja/eventfinder/pkg/config"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

const (
	ticketmasterBaseURL   = "https://app.ticketmaster.com"
	defaultPageSize       = 20
	defaultSearchCacheTTL = 5 * time.Minute
	defaultDetailCacheTTL = 15 * time.Minute
	searchCachePrefix     = "events:v1:search"
	detailCachePrefix     = "events:v1:detail"
	undefinedClass        = "Undefined"
)

// TicketmasterProvider implements EventProvider against the Ticketmaster
// Discovery v2 API.
type TicketmasterProvider struct {
	apiKey    string
	baseURL   string
	pageSize  int
	client    *upstream.Client
	cache     *upstream.Cache
	group     singleflight.Group
	searchTTL time.Duration
	detailTTL time.Duration
}

// NewTicketmasterProvider creates a provider from configuration
func NewTicketmasterProvider(cfg *config.EventsConfig, cache providers.CacheProvider, metrics *observability.Metrics) *TicketmasterProvider {
	p := NewTicketmasterProviderWithOptions(cfg.APIKey, cache, cfg.BaseURL, &http.Client{Timeout: cfg.Timeout})
	if cfg.PageSize > 0 {
		p.pageSize = cfg.PageSize
	}
	if cfg.SearchCacheTTL > 0 {
		p.searchTTL = cfg.SearchCacheTTL
	}
	if cfg.DetailCacheTTL > 0 {
		p.detailTTL = cfg.DetailCacheTTL
	}
	p.client.SetMetrics(metrics)
	p.cache = upstream.NewCache(cache, metrics)
	return p
}

// NewTicketmasterProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewTicketmasterProviderWithOptions(apiKey string, cache providers.CacheProvider, baseURL string, httpClient *http.Client) *TicketmasterProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = ticketmasterBaseURL
	}
	return &TicketmasterProvider{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		pageSize:  defaultPageSize,
		client:    upstream.NewClient("ticketmaster", httpClient, nil),
		cache:     upstream.NewCache(cache, nil),
		searchTTL: defaultSearchCacheTTL,
		detailTTL: defaultDetailCacheTTL,
	}
}

var _ providers.EventProvider = (*TicketmasterProvider)(nil)

// SearchEvents lists events within q.Radius of the query center. The radius
// is sent in q.Unit, defaulting to miles.
func (p *TicketmasterProvider) SearchEvents(ctx context.Context, q entities.EventQuery) ([]entities.EventRecord, error) {
	if !geo.ValidCoordinates(q.Latitude, q.Longitude) {
		return nil, apperrors.NewValidationError("latitude must be within ±90 and longitude within ±180")
	}
	if q.Radius < 1 {
		return nil, apperrors.NewValidationError("radius must be positive")
	}
	unit := q.Unit
	if unit == "" {
		unit = entities.UnitMiles
	}
	if p.apiKey == "" {
		return nil, apperrors.NewExternalError("ticketmaster api key is not configured", nil)
	}

	latlong := fmt.Sprintf("%.4f,%.4f", q.Latitude, q.Longitude)
	key := upstream.CacheKey(searchCachePrefix, latlong, strconv.Itoa(q.Radius), string(unit), strconv.Itoa(p.pageSize))
	var cached []entities.EventRecord
	if p.cache.Load(ctx, searchCachePrefix, key, &cached) {
		return cached, nil
	}

	v, err := upstream.Shared(ctx, &p.group, key, func(ctx context.Context) ([]entities.EventRecord, error) {
		params := url.Values{}
		params.Set("apikey", p.apiKey)
		params.Set("latlong", latlong)
		params.Set("radius", strconv.Itoa(q.Radius))
		params.Set("unit", string(unit))
		params.Set("size", strconv.Itoa(p.pageSize))
		params.Set("sort", "date,asc")

		var resp tmSearchResponse
		if err := p.client.GetJSON(ctx, "search", p.baseURL+"/discovery/v2/events.json?"+params.Encode(), &resp); err != nil {
			return nil, err
		}

		events := make([]entities.EventRecord, 0, len(resp.Embedded.Events))
		for _, raw := range resp.Embedded.Events {
			events = append(events, raw.toRecord())
		}
		p.cache.Store(ctx, key, events, p.searchTTL)
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetEvent fetches a single event
func (p *TicketmasterProvider) GetEvent(ctx context.Context, id string) (*entities.EventRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/?#%\\ ") {
		return nil, apperrors.NewValidationError("invalid event id")
	}
	if p.apiKey == "" {
		return nil, apperrors.NewExternalError("ticketmaster api key is not configured", nil)
	}

	key := upstream.CacheKey(detailCachePrefix, id)
	var cached entities.EventRecord
	if p.cache.Load(ctx, detailCachePrefix, key, &cached) {
		return &cached, nil
	}

	v, err := upstream.Shared(ctx, &p.group, key, func(ctx context.Context) (*entities.EventRecord, error) {
		params := url.Values{}
		params.Set("apikey", p.apiKey)

		var raw tmEvent
		rawURL := p.baseURL + "/discovery/v2/events/" + url.PathEscape(id) + ".json?" + params.Encode()
		if err := p.client.GetJSON(ctx, "detail", rawURL, &raw); err != nil {
			if upstream.StatusCode(err) == http.StatusNotFound {
				return nil, apperrors.NewNotFoundError("event not found")
			}
			return nil, err
		}
		record := raw.toRecord()
		p.cache.Store(ctx, key, record, p.detailTTL)
		return &record, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

type tmSearchResponse struct {
	Embedded struct {
		Events []tmEvent `json:"events"`
	} `json:"_embedded"`
}

type tmEvent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Info   string `json:"info"`
	Note   string `json:"pleaseNote"`
	Images []struct {
		URL    string `json:"url"`
		Ratio  string `json:"ratio"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"images"`
	Dates struct {
		Start struct {
			LocalDate string `json:"localDate"`
			LocalTime string `json:"localTime"`
		} `json:"start"`
		Status struct {
			Code string `json:"code"`
		} `json:"status"`
	} `json:"dates"`
	Classifications []struct {
		Genre    tmName `json:"genre"`
		SubGenre tmName `json:"subGenre"`
	} `json:"classifications"`
	PriceRanges []struct {
		Currency string              `json:"currency"`
		Min      decimal.NullDecimal `json:"min"`
		Max      decimal.NullDecimal `json:"max"`
	} `json:"priceRanges"`
	Embedded struct {
		Venues []struct {
			Name    string `json:"name"`
			Address struct {
				Line1 string `json:"line1"`
			} `json:"address"`
			City     tmName `json:"city"`
			Location *struct {
				Latitude  string `json:"latitude"`
				Longitude string `json:"longitude"`
			} `json:"location"`
		} `json:"venues"`
		Attractions []tmName `json:"attractions"`
	} `json:"_embedded"`
}

type tmName struct {
	Name string `json:"name"`
}

func (e tmEvent) toRecord() entities.EventRecord {
	record := entities.EventRecord{
		ID:           e.ID,
		Name:         e.Name,
		URL:          e.URL,
		Info:         e.Info,
		PleaseNote:   e.Note,
		StartDate:    e.Dates.Start.LocalDate,
		StartTime:    e.Dates.Start.LocalTime,
		TicketStatus: entities.TicketStatusOffSale,
	}
	if e.Dates.Status.Code == string(entities.TicketStatusOnSale) {
		record.TicketStatus = entities.TicketStatusOnSale
	}

	for _, img := range e.Images {
		record.Images = append(record.Images, entities.Image{URL: img.URL, Width: img.Width, Height: img.Height, Ratio: img.Ratio})
	}

	if len(e.Classifications) > 0 {
		c := e.Classifications[0]
		if c.Genre.Name != "" && c.Genre.Name != undefinedClass {
			record.Genre = c.Genre.Name
		}
		if c.SubGenre.Name != "" && c.SubGenre.Name != undefinedClass {
			record.Subgenre = c.SubGenre.Name
		}
	}

	if len(e.PriceRanges) > 0 && e.PriceRanges[0].Min.Valid {
		pr := e.PriceRanges[0]
		upper := pr.Max.Decimal
		if !pr.Max.Valid {
			upper = pr.Min.Decimal
		}
		record.PriceRange = &entities.PriceRange{Min: pr.Min.Decimal, Max: upper, Currency: pr.Currency}
	}

	if len(e.Embedded.Venues) > 0 {
		v := e.Embedded.Venues[0]
		record.Venue = entities.Venue{Name: v.Name, Address: v.Address.Line1, City: v.City.Name}
		if v.Location != nil {
			lat, errLat := strconv.ParseFloat(v.Location.Latitude, 64)
			lon, errLon := strconv.ParseFloat(v.Location.Longitude, 64)
			if errLat == nil && errLon == nil {
				record.Venue.Latitude = &lat
				record.Venue.Longitude = &lon
			}
		}
	}

	for _, a := range e.Embedded.Attractions {
		if a.Name != "" {
			record.Artists = append(record.Artists, a.Name)
		}
	}
	return record
}
