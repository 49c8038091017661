package app

import (
	"context"
	"errors"
	"time"

	"property-marketplace-service/internal/domain/bid"
	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/inbound"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PropertyService implements the listing use cases
type PropertyService struct {
	propertyRepo   outbound.PropertyRepository
	userRepo       outbound.UserRepository
	cache          outbound.ListingCache
	includePending bool
	logger         zerolog.Logger
}

// PropertyServiceParams wires the property service. IncludePending lists
// pending properties next to available ones.
type PropertyServiceParams struct {
	PropertyRepo   outbound.PropertyRepository
	UserRepo       outbound.UserRepository
	Cache          outbound.ListingCache
	IncludePending bool
	Logger         zerolog.Logger
}

// NewPropertyService creates a new property service
func NewPropertyService(params PropertyServiceParams) *PropertyService {
	return &PropertyService{
		propertyRepo:   params.PropertyRepo,
		userRepo:       params.UserRepo,
		cache:          params.Cache,
		includePending: params.IncludePending,
		logger:         params.Logger.With().Str("component", "property_service").Logger(),
	}
}

// CreateListing creates a new available property owned by the caller
func (service *PropertyService) CreateListing(ctx context.Context, req inbound.CreateListingRequest) (*property.Property, error) {
	service.logger.Info().
		Str("owner_id", req.OwnerID.String()).
		Str("type", req.Type).
		Str("location", req.Location).
		Float64("price", req.Price).
		Msg("Attempting to create listing")

	for _, v := range []float64{req.Size, req.Price, req.PreviousPrice, req.VATRate} {
		if !bid.IsFinitePrice(v) {
			service.logger.Warn().Str("owner_id", req.OwnerID.String()).Msg("Listing has a non-finite numeric field")
			return nil, shared.ErrInvalidNumber
		}
	}

	owner, err := lookupCaller(ctx, service.userRepo, req.OwnerID)
	if err != nil {
		service.logger.Error().Err(err).Str("owner_id", req.OwnerID.String()).Msg("Owner could not be resolved")
		return nil, err
	}

	ownerName := req.OwnerName
	if ownerName == "" {
		ownerName = owner.Name
	}

	now := time.Now().UTC()
	p := &property.Property{
		ID:            uuid.New(),
		OwnerID:       owner.ID,
		OwnerName:     ownerName,
		Type:          req.Type,
		Location:      req.Location,
		Purpose:       req.Purpose,
		Description:   req.Description,
		Image:         req.Image,
		Phone:         req.Phone,
		Size:          req.Size,
		Price:         req.Price,
		PreviousPrice: req.PreviousPrice,
		VATRate:       req.VATRate,
		Status:        property.StatusAvailable,
		Bids:          []bid.Bid{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.RefreshDerived()

	if err := service.propertyRepo.Create(ctx, p); err != nil {
		service.logger.Error().Err(err).Str("property_id", p.ID.String()).Msg("Failed to save property")
		return nil, err
	}

	invalidateListings(ctx, service.cache, outbound.EventTypeListingCreated, p.ID)

	service.logger.Info().
		Str("property_id", p.ID.String()).
		Str("price_with_vat", p.PriceWithVAT).
		Msg("Listing created successfully")

	return p, nil
}

// GetProperty retrieves a property by ID
func (service *PropertyService) GetProperty(ctx context.Context, propertyID uuid.UUID) (*property.Property, error) {
	service.logger.Debug().Str("property_id", propertyID.String()).Msg("Retrieving property")

	p, err := service.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		service.logger.Error().Err(err).Str("property_id", propertyID.String()).Msg("Failed to retrieve property")
		return nil, err
	}

	return p, nil
}

// ListProperties retrieves the properties matching the request filters.
// Only available properties are listed, plus pending ones when configured.
func (service *PropertyService) ListProperties(ctx context.Context, req inbound.ListPropertiesRequest) ([]*property.Property, error) {
	filter := outbound.ListingFilter{
		Type:     req.Type,
		Location: req.Location,
		Purpose:  req.Purpose,
		Statuses: service.listedStatuses(),
	}

	var generation int64
	if service.cache != nil {
		cached, gen, ok := service.cache.Get(ctx, filter)
		if ok {
			return cached, nil
		}
		generation = gen
	}

	properties, err := service.propertyRepo.List(ctx, filter)
	if err != nil {
		service.logger.Error().Err(err).Msg("Failed to list properties")
		return nil, err
	}

	if service.cache != nil {
		service.cache.Set(ctx, filter, generation, properties)
	}

	service.logger.Debug().
		Str("type", req.Type).
		Str("location", req.Location).
		Str("purpose", req.Purpose).
		Int("count", len(properties)).
		Msg("Listed properties")

	return properties, nil
}

func (service *PropertyService) listedStatuses() []property.Status {
	if service.includePending {
		return []property.Status{property.StatusAvailable, property.StatusPending}
	}
	return []property.Status{property.StatusAvailable}
}

// lookupCaller resolves the authenticated caller. A caller with no user
// document is an authorization failure, not a missing resource.
func lookupCaller(ctx context.Context, users outbound.UserRepository, callerID uuid.UUID) (*shared.User, error) {
	user, err := users.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			return nil, shared.ErrCallerUnknown
		}
		return nil, err
	}
	return user, nil
}

func invalidateListings(ctx context.Context, cache outbound.ListingCache, reason outbound.EventType, propertyID uuid.UUID) {
	if cache != nil {
		cache.Invalidate(ctx, reason, propertyID)
	}
}
