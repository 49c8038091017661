package inbound

import (
	"context"

	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"

	"github.com/google/uuid"
)

// PropertyService defines the interface for listing operations
type PropertyService interface {
	// CreateListing creates a new available property owned by the caller
	CreateListing(ctx context.Context, req CreateListingRequest) (*property.Property, error)

	// GetProperty retrieves a property by ID
	GetProperty(ctx context.Context, propertyID uuid.UUID) (*property.Property, error)

	// ListProperties retrieves the properties matching the request filters
	ListProperties(ctx context.Context, req ListPropertiesRequest) ([]*property.Property, error)
}

// BidService defines the interface for bid operations
type BidService interface {
	// PlaceBid appends a bid by the caller
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*property.Property, error)

	// AcceptBid lets the owner pick a winning bid
	AcceptBid(ctx context.Context, req AcceptBidRequest) (*property.Property, error)
}

// PurchaseService defines the interface for completing a sale
type PurchaseService interface {
	// Purchase completes the sale to the winning bidder
	Purchase(ctx context.Context, req PurchaseRequest) (*shared.PurchaseResult, error)

	// Reconcile repairs the follow-up state of one sold property
	Reconcile(ctx context.Context, propertyID uuid.UUID) (*shared.ReconcileResult, error)

	// ReconcileAll runs Reconcile over every sold property
	ReconcileAll(ctx context.Context) ([]*shared.ReconcileResult, error)
}

// ShortlistService defines the interface for a user's saved properties
type ShortlistService interface {
	// Add saves an available property to the caller's shortlist
	Add(ctx context.Context, callerID, propertyID uuid.UUID) error

	// List returns the caller's shortlisted properties that are still available
	List(ctx context.Context, callerID uuid.UUID) ([]*property.Property, error)
}

// ProfileService defines the interface for profiles and seller reputation
type ProfileService interface {
	GetProfile(ctx context.Context, callerID uuid.UUID) (*shared.Profile, error)
	UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*shared.User, error)
	GetSeller(ctx context.Context, sellerID uuid.UUID) (*shared.SellerProfile, error)
	AddReview(ctx context.Context, req AddReviewRequest) (*shared.SellerProfile, error)
	Trust(ctx context.Context, callerID, sellerID uuid.UUID) (*shared.SellerProfile, error)
	GiveGoldenBadge(ctx context.Context, callerID, sellerID uuid.UUID) (*shared.SellerProfile, error)
}

// request to create a listing
type CreateListingRequest struct {
	OwnerID       uuid.UUID `json:"owner_id"`
	OwnerName     string    `json:"owner_name"`
	Type          string    `json:"type"`
	Location      string    `json:"location"`
	Purpose       string    `json:"purpose"`
	Description   string    `json:"description"`
	Image         string    `json:"image"`
	Phone         string    `json:"phone"`
	Size          float64   `json:"size"`
	Price         float64   `json:"price"`
	PreviousPrice float64   `json:"previous_price"`
	VATRate       float64   `json:"vat_rate"`
}

// request to list properties
type ListPropertiesRequest struct {
	Type     string `json:"type,omitempty"`
	Location string `json:"location,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
}

// request to place a bid
type PlaceBidRequest struct {
	PropertyID uuid.UUID `json:"property_id"`
	UserID     uuid.UUID `json:"user_id"`
	Price      float64   `json:"price"`
}

// request to accept a bid
type AcceptBidRequest struct {
	PropertyID uuid.UUID `json:"property_id"`
	CallerID   uuid.UUID `json:"caller_id"`
	BidUserID  uuid.UUID `json:"bid_user_id"`
	BidPrice   float64   `json:"bid_price"`
}

// request to purchase a property
type PurchaseRequest struct {
	PropertyID    uuid.UUID `json:"property_id"`
	BuyerID       uuid.UUID `json:"buyer_id"`
	AccountNumber string    `json:"account_number"`
}

// request to update the caller's profile
type UpdateProfileRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Phone  string    `json:"phone"`
}

// request to review a seller
type AddReviewRequest struct {
	ReviewerID uuid.UUID `json:"reviewer_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	Text       string    `json:"text"`
}
