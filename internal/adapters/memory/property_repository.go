package memory

import (
	"context"
	"time"

	"property-marketplace-service/internal/domain/bid"
	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
)

// PropertyRepository implements outbound.PropertyRepository on a Store
type PropertyRepository struct {
	store *Store
}

var _ outbound.PropertyRepository = (*PropertyRepository)(nil)

// Create stores a new property
func (r *PropertyRepository) Create(ctx context.Context, p *property.Property) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.properties[p.ID] = p.Clone()
	return nil
}

// GetByID retrieves a property by ID
func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.properties[id]
	if !ok {
		return nil, shared.ErrPropertyNotFound
	}
	return p.Clone(), nil
}

// GetByIDs retrieves the properties with the given IDs
func (r *PropertyRepository) GetByIDs(ctx context.Context, ids []uuid.UUID, status *property.Status) ([]*property.Property, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*property.Property, 0, len(ids))
	for _, id := range ids {
		p, ok := r.store.properties[id]
		if !ok {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		result = append(result, p.Clone())
	}
	return result, nil
}

// List retrieves properties matching the filter
func (r *PropertyRepository) List(ctx context.Context, filter outbound.ListingFilter) ([]*property.Property, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*property.Property, 0)
	for _, p := range r.store.properties {
		if matches(p, filter) {
			result = append(result, p.Clone())
		}
	}
	return result, nil
}

// ListSold retrieves every sold property
func (r *PropertyRepository) ListSold(ctx context.Context) ([]*property.Property, error) {
	return r.List(ctx, outbound.ListingFilter{Statuses: []property.Status{property.StatusSold}})
}

// PushBid appends a bid unless the property is sold
func (r *PropertyRepository) PushBid(ctx context.Context, id uuid.UUID, b bid.Bid) (*property.Property, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.properties[id]
	if !ok || p.IsSold() {
		return nil, shared.ErrUpdateConflict
	}
	p.AppendBid(b)
	return p.Clone(), nil
}

// AcceptBid sets the winner when the owner, status and bid guards hold
func (r *PropertyRepository) AcceptBid(ctx context.Context, id, ownerID, bidderID uuid.UUID, price float64, at time.Time) (*property.Property, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.properties[id]
	if !ok || !p.IsOwnedBy(ownerID) || !p.HasBid(bidderID, price) {
		return nil, shared.ErrUpdateConflict
	}
	if !p.AcceptBid(bidderID, price, at) {
		return nil, shared.ErrUpdateConflict
	}
	return p.Clone(), nil
}

// MarkSold completes the sale when the property is pending and buyerID won
func (r *PropertyRepository) MarkSold(ctx context.Context, id, buyerID uuid.UUID, accountNumber string, at time.Time) (*property.Property, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.properties[id]
	if !ok || !p.IsWinner(buyerID) {
		return nil, shared.ErrUpdateConflict
	}
	if !p.MarkSold(buyerID, accountNumber, at) {
		return nil, shared.ErrUpdateConflict
	}
	return p.Clone(), nil
}
