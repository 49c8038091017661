package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/inbound"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProfileService implements profile and seller reputation use cases
type ProfileService struct {
	propertyRepo outbound.PropertyRepository
	userRepo     outbound.UserRepository
	logger       zerolog.Logger
}

type ProfileServiceParams struct {
	PropertyRepo outbound.PropertyRepository
	UserRepo     outbound.UserRepository
	Logger       zerolog.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(params ProfileServiceParams) *ProfileService {
	return &ProfileService{
		propertyRepo: params.PropertyRepo,
		userRepo:     params.UserRepo,
		logger:       params.Logger.With().Str("component", "profile_service").Logger(),
	}
}

// GetProfile returns the caller's user document with purchased property details
func (service *ProfileService) GetProfile(ctx context.Context, callerID uuid.UUID) (*shared.Profile, error) {
	user, err := lookupCaller(ctx, service.userRepo, callerID)
	if err != nil {
		return nil, err
	}

	purchased, err := service.propertyRepo.GetByIDs(ctx, user.PurchasedProperties, nil)
	if err != nil {
		service.logger.Error().Err(err).Str("user_id", callerID.String()).Msg("Failed to load purchased properties")
		return nil, err
	}
	if purchased == nil {
		purchased = []*property.Property{}
	}

	return &shared.Profile{User: user, PurchasedPropertiesDetails: purchased}, nil
}

// UpdateProfile sets the caller's name and phone
func (service *ProfileService) UpdateProfile(ctx context.Context, req inbound.UpdateProfileRequest) (*shared.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shared.ErrInvalidRequest
	}

	user, err := service.userRepo.UpdateProfile(ctx, req.UserID, name, strings.TrimSpace(req.Phone))
	if err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			return nil, shared.ErrCallerUnknown
		}
		return nil, err
	}

	service.logger.Info().Str("user_id", req.UserID.String()).Msg("Profile updated")
	return user, nil
}

// GetSeller returns the public view of a seller
func (service *ProfileService) GetSeller(ctx context.Context, sellerID uuid.UUID) (*shared.SellerProfile, error) {
	seller, err := service.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return toSellerProfile(seller), nil
}

// AddReview appends a review to a seller. The reviewer's current name is
// stored with the review.
func (service *ProfileService) AddReview(ctx context.Context, req inbound.AddReviewRequest) (*shared.SellerProfile, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, shared.ErrReviewTextRequired
	}
	if req.ReviewerID == req.SellerID {
		return nil, shared.ErrSelfEndorsement
	}

	reviewer, err := lookupCaller(ctx, service.userRepo, req.ReviewerID)
	if err != nil {
		return nil, err
	}

	seller, err := service.userRepo.AddReview(ctx, req.SellerID, shared.Review{
		ReviewerID:   reviewer.ID,
		ReviewerName: reviewer.Name,
		Text:         text,
		Date:         time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info().
		Str("seller_id", req.SellerID.String()).
		Str("reviewer_id", reviewer.ID.String()).
		Msg("Review added")

	return toSellerProfile(seller), nil
}

// Trust records that the caller trusts the seller. Each caller counts once.
func (service *ProfileService) Trust(ctx context.Context, callerID, sellerID uuid.UUID) (*shared.SellerProfile, error) {
	return service.endorse(ctx, callerID, sellerID, "trust", service.userRepo.AddTrust)
}

// GiveGoldenBadge awards the seller a golden badge from the caller. Each
// caller counts once.
func (service *ProfileService) GiveGoldenBadge(ctx context.Context, callerID, sellerID uuid.UUID) (*shared.SellerProfile, error) {
	return service.endorse(ctx, callerID, sellerID, "golden_badge", service.userRepo.AddGoldenBadge)
}

func (service *ProfileService) endorse(
	ctx context.Context,
	callerID, sellerID uuid.UUID,
	kind string,
	add func(ctx context.Context, sellerID, endorserID uuid.UUID) (*shared.User, error),
) (*shared.SellerProfile, error) {
	if callerID == sellerID {
		return nil, shared.ErrSelfEndorsement
	}

	if _, err := lookupCaller(ctx, service.userRepo, callerID); err != nil {
		return nil, err
	}

	seller, err := add(ctx, sellerID, callerID)
	if err != nil {
		return nil, err
	}

	service.logger.Info().
		Str("seller_id", sellerID.String()).
		Str("endorser_id", callerID.String()).
		Str("kind", kind).
		Msg("Seller endorsed")

	return toSellerProfile(seller), nil
}

func toSellerProfile(u *shared.User) *shared.SellerProfile {
	reviews := u.Reviews
	if reviews == nil {
		reviews = []shared.Review{}
	}
	return &shared.SellerProfile{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Phone:            u.Phone,
		TrustCount:       len(u.TrustedBy),
		GoldenBadgeCount: len(u.GoldenBadges),
		Reviews:          reviews,
	}
}
