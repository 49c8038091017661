package memory

import (
	"context"

	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
)

// UserRepository implements outbound.UserRepository on a Store
type UserRepository struct {
	store *Store
}

var _ outbound.UserRepository = (*UserRepository)(nil)

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u.Clone(), nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *shared.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.users[user.ID] = user.Clone()
	return nil
}

// UpdateProfile sets name and phone
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) (*shared.User, error) {
	return r.mutate(id, func(u *shared.User) {
		u.Name = name
		u.Phone = phone
	})
}

// AddPurchased appends propertyID once
func (r *UserRepository) AddPurchased(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[userID]
	if !ok {
		return false, shared.ErrUserNotFound
	}
	var added bool
	u.PurchasedProperties, added = addID(u.PurchasedProperties, propertyID)
	return added, nil
}

// AddToShortlist adds propertyID to the shortlist set
func (r *UserRepository) AddToShortlist(ctx context.Context, userID, propertyID uuid.UUID) error {
	_, err := r.mutate(userID, func(u *shared.User) {
		u.Shortlist, _ = addID(u.Shortlist, propertyID)
	})
	return err
}

// PullFromAllShortlists removes propertyID from every shortlist
func (r *UserRepository) PullFromAllShortlists(ctx context.Context, propertyID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var modified int64
	for _, u := range r.store.users {
		var removed bool
		u.Shortlist, removed = removeID(u.Shortlist, propertyID)
		if removed {
			modified++
		}
	}
	return modified, nil
}

// AddReview appends a review
func (r *UserRepository) AddReview(ctx context.Context, sellerID uuid.UUID, review shared.Review) (*shared.User, error) {
	return r.mutate(sellerID, func(u *shared.User) {
		u.Reviews = append(u.Reviews, review)
	})
}

// AddTrust adds endorserID to trustedBy
func (r *UserRepository) AddTrust(ctx context.Context, sellerID, endorserID uuid.UUID) (*shared.User, error) {
	return r.mutate(sellerID, func(u *shared.User) {
		u.TrustedBy, _ = addID(u.TrustedBy, endorserID)
	})
}

// AddGoldenBadge adds endorserID to goldenBadges
func (r *UserRepository) AddGoldenBadge(ctx context.Context, sellerID, endorserID uuid.UUID) (*shared.User, error) {
	return r.mutate(sellerID, func(u *shared.User) {
		u.GoldenBadges, _ = addID(u.GoldenBadges, endorserID)
	})
}

func (r *UserRepository) mutate(id uuid.UUID, fn func(u *shared.User)) (*shared.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	fn(u)
	return u.Clone(), nil
}
