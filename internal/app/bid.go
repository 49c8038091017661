package app

import (
	"context"
	"errors"
	"time"

	"property-marketplace-service/internal/adapters/metrics"
	"property-marketplace-service/internal/domain/bid"
	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/inbound"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// BidService implements the bid use cases
type BidService struct {
	propertyRepo outbound.PropertyRepository
	userRepo     outbound.UserRepository
	cache        outbound.ListingCache
	logger       zerolog.Logger
}

type BidServiceParams struct {
	PropertyRepo outbound.PropertyRepository
	UserRepo     outbound.UserRepository
	Cache        outbound.ListingCache
	Logger       zerolog.Logger
}

// NewBidService creates a new bid service
func NewBidService(params BidServiceParams) *BidService {
	return &BidService{
		propertyRepo: params.PropertyRepo,
		userRepo:     params.UserRepo,
		cache:        params.Cache,
		logger:       params.Logger.With().Str("component", "bid_service").Logger(),
	}
}

// PlaceBid appends a bid by the caller. The bidder's name is looked up now
// and stored with the bid.
func (client *BidService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*property.Property, error) {
	client.logger.Info().
		Str("property_id", req.PropertyID.String()).
		Str("user_id", req.UserID.String()).
		Float64("price", req.Price).
		Msg("Attempting to place bid")

	if !bid.IsFinitePrice(req.Price) {
		metrics.BidsPlaced.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, shared.ErrInvalidPrice
	}

	bidder, err := lookupCaller(ctx, client.userRepo, req.UserID)
	if err != nil {
		client.logger.Warn().Err(err).Str("user_id", req.UserID.String()).Msg("Bidder could not be resolved")
		metrics.BidsPlaced.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	newBid := bid.New(bidder.ID, bidder.Name, req.Price, time.Now().UTC())

	p, err := client.propertyRepo.PushBid(ctx, req.PropertyID, newBid)
	if err != nil {
		if errors.Is(err, shared.ErrUpdateConflict) {
			err = client.classifyBidConflict(ctx, req)
		}
		client.logger.Warn().Err(err).Str("property_id", req.PropertyID.String()).Msg("Failed to place bid")
		metrics.BidsPlaced.WithLabelValues(outcomeOf(err)).Inc()
		return nil, err
	}

	invalidateListings(ctx, client.cache, outbound.EventTypeBidPlaced, p.ID)
	metrics.BidsPlaced.WithLabelValues(metrics.OutcomeSuccess).Inc()

	client.logger.Info().
		Str("property_id", p.ID.String()).
		Str("user_id", bidder.ID.String()).
		Int("bid_count", len(p.Bids)).
		Msg("Bid placed successfully")

	return p, nil
}

// AcceptBid lets the owner pick a winning bid. The chosen (user, price) pair
// must be present in the bids but need not be the highest.
func (client *BidService) AcceptBid(ctx context.Context, req inbound.AcceptBidRequest) (*property.Property, error) {
	client.logger.Info().
		Str("property_id", req.PropertyID.String()).
		Str("caller_id", req.CallerID.String()).
		Str("bid_user_id", req.BidUserID.String()).
		Float64("bid_price", req.BidPrice).
		Msg("Attempting to accept bid")

	if !bid.IsFinitePrice(req.BidPrice) {
		metrics.BidsAccepted.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, shared.ErrInvalidPrice
	}

	current, err := client.propertyRepo.GetByID(ctx, req.PropertyID)
	if err != nil {
		metrics.BidsAccepted.WithLabelValues(outcomeOf(err)).Inc()
		return nil, err
	}

	if err := checkAcceptable(current, req); err != nil {
		client.logger.Warn().Err(err).Str("property_id", req.PropertyID.String()).Msg("Bid acceptance rejected")
		metrics.BidsAccepted.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	p, err := client.propertyRepo.AcceptBid(ctx, req.PropertyID, req.CallerID, req.BidUserID, req.BidPrice, time.Now().UTC())
	if err != nil {
		if errors.Is(err, shared.ErrUpdateConflict) {
			// lost a race with another acceptance; report against the new state
			if latest, getErr := client.propertyRepo.GetByID(ctx, req.PropertyID); getErr == nil {
				if checkErr := checkAcceptable(latest, req); checkErr != nil {
					err = checkErr
				}
			}
		}
		client.logger.Warn().Err(err).Str("property_id", req.PropertyID.String()).Msg("Failed to accept bid")
		metrics.BidsAccepted.WithLabelValues(outcomeOf(err)).Inc()
		return nil, err
	}

	invalidateListings(ctx, client.cache, outbound.EventTypeBidAccepted, p.ID)
	metrics.BidsAccepted.WithLabelValues(metrics.OutcomeSuccess).Inc()

	client.logger.Info().
		Str("property_id", p.ID.String()).
		Str("winning_bidder", req.BidUserID.String()).
		Float64("winning_price", req.BidPrice).
		Msg("Bid accepted, property pending")

	return p, nil
}

// checkAcceptable applies the acceptance guards in order: ownership,
// status, then bid presence.
func checkAcceptable(p *property.Property, req inbound.AcceptBidRequest) error {
	if !p.IsOwnedBy(req.CallerID) {
		return shared.ErrNotPropertyOwner
	}
	if !p.IsAvailable() {
		return shared.ErrPropertyNotAvailable
	}
	if !p.HasBid(req.BidUserID, req.BidPrice) {
		return shared.ErrBidNotFound
	}
	return nil
}

func (client *BidService) classifyBidConflict(ctx context.Context, req inbound.PlaceBidRequest) error {
	p, err := client.propertyRepo.GetByID(ctx, req.PropertyID)
	if err != nil {
		return err
	}
	if p.IsSold() {
		return shared.ErrPropertyAlreadySold
	}
	return shared.ErrUpdateConflict
}

func outcomeOf(err error) string {
	if shared.KindOf(err) == shared.KindInternal {
		return metrics.OutcomeError
	}
	return metrics.OutcomeRejected
}
