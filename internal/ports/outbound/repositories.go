package outbound

import (
	"context"
	"time"

	"property-marketplace-service/internal/domain/bid"
	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"

	"github.com/google/uuid"
)

// ListingFilter narrows a listing query. Text fields are case-insensitive
// substring matches; empty fields are ignored.
type ListingFilter struct {
	Type     string
	Location string
	Purpose  string
	Statuses []property.Status
}

// PropertyRepository defines the interface for property document operations.
// Conditional updates return shared.ErrUpdateConflict when their guard
// matched no document; callers re-read to classify the failure.
type PropertyRepository interface {
	// Create stores a new property
	Create(ctx context.Context, p *property.Property) error

	// GetByID retrieves a property by ID
	GetByID(ctx context.Context, id uuid.UUID) (*property.Property, error)

	// GetByIDs retrieves the properties with the given IDs, optionally
	// restricted to one status. Unknown IDs are skipped.
	GetByIDs(ctx context.Context, ids []uuid.UUID, status *property.Status) ([]*property.Property, error)

	// List retrieves properties matching the filter
	List(ctx context.Context, filter ListingFilter) ([]*property.Property, error)

	// ListSold retrieves every sold property
	ListSold(ctx context.Context) ([]*property.Property, error)

	// PushBid appends a bid in a single atomic push. Sold properties are
	// excluded by the update guard.
	PushBid(ctx context.Context, id uuid.UUID, b bid.Bid) (*property.Property, error)

	// AcceptBid sets the winner and moves the property to pending, guarded
	// on owner, status=available and the (bidder, price) pair being present.
	AcceptBid(ctx context.Context, id, ownerID, bidderID uuid.UUID, price float64, at time.Time) (*property.Property, error)

	// MarkSold moves a pending property to sold, guarded on the buyer being
	// the winning bidder.
	MarkSold(ctx context.Context, id, buyerID uuid.UUID, accountNumber string, at time.Time) (*property.Property, error)
}

// UserRepository defines the interface for user document operations
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*shared.User, error)

	// Create creates a new user
	Create(ctx context.Context, user *shared.User) error

	// UpdateProfile sets the mutable profile fields and returns the result
	UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) (*shared.User, error)

	// AddPurchased appends propertyID to purchasedProperties unless it is
	// already there. It reports whether the append happened.
	AddPurchased(ctx context.Context, userID, propertyID uuid.UUID) (bool, error)

	// AddToShortlist adds propertyID to the user's shortlist set
	AddToShortlist(ctx context.Context, userID, propertyID uuid.UUID) error

	// PullFromAllShortlists removes propertyID from every user's shortlist
	// and returns how many users were modified
	PullFromAllShortlists(ctx context.Context, propertyID uuid.UUID) (int64, error)

	// AddReview appends a review to the seller
	AddReview(ctx context.Context, sellerID uuid.UUID, review shared.Review) (*shared.User, error)

	// AddTrust adds endorserID to the seller's trustedBy set
	AddTrust(ctx context.Context, sellerID, endorserID uuid.UUID) (*shared.User, error)

	// AddGoldenBadge adds endorserID to the seller's goldenBadges set
	AddGoldenBadge(ctx context.Context, sellerID, endorserID uuid.UUID) (*shared.User, error)
}

// PaymentLedger records completed purchases
type PaymentLedger interface {
	// Record stores the payment once per property. It reports whether a
	// new row was written.
	Record(ctx context.Context, rec shared.PaymentRecord) (bool, error)

	// GetByPropertyID retrieves the payment for a property
	GetByPropertyID(ctx context.Context, propertyID uuid.UUID) (*shared.PaymentRecord, error)
}
