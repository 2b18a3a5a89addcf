package providers

import (
	"context"

	"github.com/zatekoja/eventfinder/internal/domain/entities"
)

// GeocodeProvider resolves free text to candidate places and coordinates
// back to a place name. Implementations make at most one upstream call per
// operation and never retry.
type GeocodeProvider interface {
	// Search returns up to limit candidates for query
	Search(ctx context.Context, query string, limit int) ([]entities.Place, error)

	// Reverse returns the best place for the coordinates
	Reverse(ctx context.Context, lat, lon float64) (*entities.Place, error)
}
