package app

import (
	"context"
	"errors"

	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ShortlistService implements the saved-properties use cases
type ShortlistService struct {
	propertyRepo outbound.PropertyRepository
	userRepo     outbound.UserRepository
	logger       zerolog.Logger
}

type ShortlistServiceParams struct {
	PropertyRepo outbound.PropertyRepository
	UserRepo     outbound.UserRepository
	Logger       zerolog.Logger
}

// NewShortlistService creates a new shortlist service
func NewShortlistService(params ShortlistServiceParams) *ShortlistService {
	return &ShortlistService{
		propertyRepo: params.PropertyRepo,
		userRepo:     params.UserRepo,
		logger:       params.Logger.With().Str("component", "shortlist_service").Logger(),
	}
}

// Add saves an available property to the caller's shortlist. Adding a
// property twice is a no-op.
func (service *ShortlistService) Add(ctx context.Context, callerID, propertyID uuid.UUID) error {
	p, err := service.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return err
	}

	if !p.IsAvailable() {
		service.logger.Warn().
			Str("property_id", propertyID.String()).
			Str("status", string(p.Status)).
			Msg("Cannot shortlist a property that is not available")
		return shared.ErrPropertyNotAvailable
	}

	if err := service.userRepo.AddToShortlist(ctx, callerID, propertyID); err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			return shared.ErrCallerUnknown
		}
		return err
	}

	service.logger.Debug().
		Str("user_id", callerID.String()).
		Str("property_id", propertyID.String()).
		Msg("Property shortlisted")

	return nil
}

// List returns the caller's shortlisted properties that are still available
func (service *ShortlistService) List(ctx context.Context, callerID uuid.UUID) ([]*property.Property, error) {
	user, err := lookupCaller(ctx, service.userRepo, callerID)
	if err != nil {
		return nil, err
	}

	available := property.StatusAvailable
	return service.propertyRepo.GetByIDs(ctx, user.Shortlist, &available)
}
