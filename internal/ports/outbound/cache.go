package outbound

import (
	"context"

	"property-marketplace-service/internal/domain/property"

	"github.com/google/uuid"
)

// ListingCache caches listing query results
type ListingCache interface {
	// Get returns the cached result and true on a hit. The returned
	// generation is the one the lookup was made under.
	Get(ctx context.Context, filter ListingFilter) ([]*property.Property, int64, bool)

	// Set stores a result read under generation. Results read before a
	// later invalidation are never served.
	Set(ctx context.Context, filter ListingFilter, generation int64, properties []*property.Property)

	// Invalidate drops every cached result on this and all other instances
	Invalidate(ctx context.Context, reason EventType, propertyID uuid.UUID)
}
