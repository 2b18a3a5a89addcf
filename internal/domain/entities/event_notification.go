package entities

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies what a server-side notification announces
type NotificationType string

const (
	NotificationEventsLoaded NotificationType = "eventsDataLoaded"
)

// EventsNotification is broadcast on the server event bus whenever an event
// search completes, so stream subscribers near Center can follow along.
type EventsNotification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Center    Location         `json:"center"`
	RadiusKm  int              `json:"radius_km"`
	Count     int              `json:"count"`
	EventIDs  []string         `json:"event_ids"`
}

// NewEventsLoadedNotification creates a notification for a completed search
func NewEventsLoadedNotification(center Location, radiusKm int, events []EventRecord) *EventsNotification {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return &EventsNotification{
		ID:        uuid.New().String(),
		Type:      NotificationEventsLoaded,
		Timestamp: time.Now().UTC(),
		Center:    center,
		RadiusKm:  radiusKm,
		Count:     len(events),
		EventIDs:  ids,
	}
}
