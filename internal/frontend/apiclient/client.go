// Package apiclient talks to the eventfinder server on behalf of the
// terminal client. It implements the same provider interfaces the server
// uses upstream, so client components do not care where data comes from.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
	"github.com/zatekoja/eventfinder/internal/domain/providers"
	apperrors "github.com/zatekoja/eventfinder/pkg/errors"
	"github.com/zatekoja/eventfinder/pkg/geo"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 5 << 20
	minQueryLength = 2

	// SessionHeader carries the client session id to the server
	SessionHeader = "X-Session-ID"
)

var (
	_ providers.GeocodeProvider = (*Client)(nil)
	_ providers.EventProvider   = (*Client)(nil)
)

// Client is a thin wrapper over the server's JSON API
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessionID  string
	bounds     geo.RadiusBounds
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL, sessionID string, bounds geo.RadiusBounds) *Client {
	return NewClientWithOptions(baseURL, sessionID, bounds, nil)
}

// NewClientWithOptions creates a client with a custom HTTP client
func NewClientWithOptions(baseURL, sessionID string, bounds geo.RadiusBounds, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		sessionID:  sessionID,
		bounds:     bounds,
	}
}

// Search resolves a free-text query to candidate places
func (c *Client) Search(ctx context.Context, query string, limit int) ([]entities.Place, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLength {
		return nil, apperrors.NewValidationError(fmt.Sprintf("query must be at least %d characters", minQueryLength))
	}

	var places []entities.Place
	path := "/api/locations?" + url.Values{"q": {query}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &places); err != nil {
		return nil, err
	}
	if limit > 0 && len(places) > limit {
		places = places[:limit]
	}
	return places, nil
}

// Reverse names the coordinates
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*entities.Place, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, apperrors.NewValidationError("latitude must be within ±90 and longitude within ±180")
	}

	params := url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
	var loc entities.Location
	if err := c.do(ctx, http.MethodGet, "/api/reverse-geocode?"+params.Encode(), nil, &loc); err != nil {
		return nil, err
	}
	return &entities.Place{DisplayName: loc.DisplayName, Latitude: loc.Latitude, Longitude: loc.Longitude}, nil
}

// SearchEvents lists events around q. A kilometer radius is checked
// against the configured bounds before anything is sent.
func (c *Client) SearchEvents(ctx context.Context, q entities.EventQuery) ([]entities.EventRecord, error) {
	if !geo.ValidCoordinates(q.Latitude, q.Longitude) {
		return nil, apperrors.NewValidationError("latitude must be within ±90 and longitude within ±180")
	}
	if q.Unit == "" {
		q.Unit = entities.UnitKilometers
	}
	if q.Unit == entities.UnitKilometers && !c.bounds.Contains(q.Radius) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("radius must be between %d and %d km", c.bounds.Min, c.bounds.Max))
	}

	var resp struct {
		Events []entities.EventRecord `json:"events"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/events", q, &resp); err != nil {
		return nil, err
	}
	if resp.Events == nil {
		resp.Events = []entities.EventRecord{}
	}
	return resp.Events, nil
}

// GetEvent fetches one event by id
func (c *Client) GetEvent(ctx context.Context, id string) (*entities.EventRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewValidationError("event id is required")
	}
	var event entities.EventRecord
	if err := c.do(ctx, http.MethodGet, "/api/events/"+url.PathEscape(id), nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// RenderEventCard returns the server-rendered card fragment for event
func (c *Client) RenderEventCard(ctx context.Context, event entities.EventRecord) (string, error) {
	return c.fragment(ctx, "/api/render-event-card", event)
}

// RenderMapPopup returns the server-rendered popup fragment for event
func (c *Client) RenderMapPopup(ctx context.Context, event entities.EventRecord) (string, error) {
	return c.fragment(ctx, "/api/render-map-popup", event)
}

func (c *Client) fragment(ctx context.Context, path string, event entities.EventRecord) (string, error) {
	if event.ID == "" {
		return "", apperrors.NewValidationError("event id is required")
	}
	var html bytes.Buffer
	if err := c.do(ctx, http.MethodPost, path, event, &html); err != nil {
		return "", err
	}
	return html.String(), nil
}

// do sends one request. out is either a *bytes.Buffer for raw bodies or a
// JSON target.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return apperrors.NewInternalError("failed to encode request", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperrors.NewInternalError("failed to build request", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionID != "" {
		req.Header.Set(SessionHeader, c.sessionID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("server unreachable")
		return apperrors.NewExternalError("server unreachable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperrors.NewExternalError("failed to read response", err)
	}
	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(method, path, resp.StatusCode, data)
	}

	if buf, ok := out.(*bytes.Buffer); ok {
		buf.Write(data)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to decode server response")
		return apperrors.NewExternalError("failed to decode server response", err)
	}
	return nil
}

func statusError(method, path string, status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	msg := payload.Error
	if msg == "" {
		msg = fmt.Sprintf("server returned status %d", status)
	}

	log.Warn().Str("method", method).Str("path", path).Int("status", status).Str("error", msg).Msg("server returned error status")
	switch status {
	case http.StatusBadRequest:
		return apperrors.NewValidationError(msg)
	case http.StatusNotFound:
		return apperrors.NewNotFoundError(msg)
	default:
		return apperrors.NewExternalError(msg, fmt.Errorf("status %d", status))
	}
}
