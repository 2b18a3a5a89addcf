package entities

import (
	"time"
)

// SearchKind is the kind of upstream lookup a SearchEvent records
type SearchKind string

const (
	SearchKindLocation SearchKind = "location"
	SearchKindReverse  SearchKind = "reverse"
	SearchKindEvents   SearchKind = "events"
)

// SearchEvent represents a single search interaction for analytics.
type SearchEvent struct {
	ID          string     `json:"id" db:"id"`
	Kind        SearchKind `json:"kind" db:"kind"`
	Query       string     `json:"query" db:"query"`
	Latitude    float64    `json:"latitude" db:"latitude"`
	Longitude   float64    `json:"longitude" db:"longitude"`
	RadiusKm    int        `json:"radius_km" db:"radius_km"`
	ResultCount int        `json:"result_count" db:"result_count"`
	LatencyMs   int        `json:"latency_ms" db:"latency_ms"`
	Failed      bool       `json:"failed" db:"failed"`
	SessionID   string     `json:"session_id,omitempty" db:"session_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
