package providers

import (
	"context"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
)

// EventProvider lists events around a point
type EventProvider interface {
	// SearchEvents returns the events within q.Radius of q's center, in
	// provider order
	SearchEvents(ctx context.Context, q entities.EventQuery) ([]entities.EventRecord, error)

	// GetEvent returns a single event by provider id
	GetEvent(ctx context.Context, id string) (*entities.EventRecord, error)
}
