package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"property-marketplace-service/internal/adapters/metrics"
	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/inbound"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PurchaseService completes sales and repairs their follow-up steps.
//
// A purchase is a saga over separate documents: (a) the status-guarded
// pending->sold update on the property, (b) the append to the buyer's
// purchasedProperties, (c) the shortlist sweep, and (d) the ledger row.
// Only (a) decides the sale. Every later step is idempotent, so a retry by
// the buyer or a reconcile pass can replay them safely.
type PurchaseService struct {
	propertyRepo   outbound.PropertyRepository
	userRepo       outbound.UserRepository
	ledger         outbound.PaymentLedger
	cache          outbound.ListingCache
	scheduler      outbound.ReconcileScheduler
	reconcileDelay time.Duration
	logger         zerolog.Logger
}

// PurchaseServiceParams wires the purchase service. Ledger is optional and
// purchases are not recorded without it. ReconcileDelay is how long after a
// purchase the follow-up check runs.
type PurchaseServiceParams struct {
	PropertyRepo   outbound.PropertyRepository
	UserRepo       outbound.UserRepository
	Ledger         outbound.PaymentLedger
	Cache          outbound.ListingCache
	Scheduler      outbound.ReconcileScheduler
	ReconcileDelay time.Duration
	Logger         zerolog.Logger
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(params PurchaseServiceParams) *PurchaseService {
	return &PurchaseService{
		propertyRepo:   params.PropertyRepo,
		userRepo:       params.UserRepo,
		ledger:         params.Ledger,
		cache:          params.Cache,
		scheduler:      params.Scheduler,
		reconcileDelay: params.ReconcileDelay,
		logger:         params.Logger.With().Str("component", "purchase_service").Logger(),
	}
}

// SetScheduler sets the reconcile scheduler
func (service *PurchaseService) SetScheduler(scheduler outbound.ReconcileScheduler) {
	service.scheduler = scheduler
}

// Purchase completes the sale of a pending property to its winning bidder
func (service *PurchaseService) Purchase(ctx context.Context, req inbound.PurchaseRequest) (*shared.PurchaseResult, error) {
	service.logger.Info().
		Str("property_id", req.PropertyID.String()).
		Str("buyer_id", req.BuyerID.String()).
		Msg("Attempting purchase")

	accountNumber := strings.TrimSpace(req.AccountNumber)
	if accountNumber == "" {
		metrics.Purchases.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, shared.ErrAccountNumberBlank
	}

	if _, err := lookupCaller(ctx, service.userRepo, req.BuyerID); err != nil {
		service.logger.Warn().Err(err).Str("buyer_id", req.BuyerID.String()).Msg("Buyer could not be resolved")
		metrics.Purchases.WithLabelValues(outcomeOf(err)).Inc()
		return nil, err
	}

	result := &shared.PurchaseResult{}

	// (a) the only step that decides the sale
	p, err := service.propertyRepo.MarkSold(ctx, req.PropertyID, req.BuyerID, accountNumber, time.Now().UTC())
	if err != nil {
		if !errors.Is(err, shared.ErrUpdateConflict) {
			service.logger.Error().Err(err).Str("property_id", req.PropertyID.String()).Msg("Failed to mark property sold")
			metrics.Purchases.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, err
		}

		p, err = service.classifyPurchaseConflict(ctx, req)
		if err != nil {
			service.logger.Warn().Err(err).Str("property_id", req.PropertyID.String()).Msg("Purchase rejected")
			metrics.Purchases.WithLabelValues(outcomeOf(err)).Inc()
			return nil, err
		}
		result.Resumed = true
		service.logger.Info().
			Str("property_id", p.ID.String()).
			Str("buyer_id", req.BuyerID.String()).
			Msg("Property already sold to caller, resuming follow-up steps")
	}
	result.Property = p

	if !result.Resumed {
		invalidateListings(ctx, service.cache, outbound.EventTypePropertySold, p.ID)
	}

	// (b) required for the purchase to count as complete
	if _, err := service.userRepo.AddPurchased(ctx, req.BuyerID, p.ID); err != nil {
		service.logger.Error().Err(err).
			Str("property_id", p.ID.String()).
			Str("buyer_id", req.BuyerID.String()).
			Msg("Failed to record purchase on buyer, scheduling reconcile")
		service.schedule(ctx, p.ID, time.Now())
		metrics.Purchases.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to record purchase for buyer: %w", err)
	}

	needsRepair := false

	// (c) best effort
	pruned, err := service.userRepo.PullFromAllShortlists(ctx, p.ID)
	if err != nil {
		service.logger.Warn().Err(err).Str("property_id", p.ID.String()).Msg("Shortlist cleanup failed")
		needsRepair = true
	}
	result.ShortlistsPruned = pruned

	// (d) best effort
	if service.ledger != nil {
		recorded, err := service.recordPayment(ctx, p)
		if err != nil {
			service.logger.Warn().Err(err).Str("property_id", p.ID.String()).Msg("Payment ledger write failed")
			needsRepair = true
		}
		result.LedgerRecorded = recorded
	}

	// a shortlist add racing the sweep is caught by the delayed pass
	if needsRepair {
		service.schedule(ctx, p.ID, time.Now())
	} else {
		service.schedule(ctx, p.ID, time.Now().Add(service.reconcileDelay))
	}

	outcome := metrics.OutcomeSuccess
	if result.Resumed {
		outcome = metrics.OutcomeResumed
	}
	metrics.Purchases.WithLabelValues(outcome).Inc()

	service.logger.Info().
		Str("property_id", p.ID.String()).
		Str("buyer_id", req.BuyerID.String()).
		Bool("resumed", result.Resumed).
		Int64("shortlists_pruned", pruned).
		Bool("ledger_recorded", result.LedgerRecorded).
		Msg("Purchase completed")

	return result, nil
}

// classifyPurchaseConflict re-reads a property whose pending->sold guard
// missed. It returns the property only when the caller already bought it.
func (service *PurchaseService) classifyPurchaseConflict(ctx context.Context, req inbound.PurchaseRequest) (*property.Property, error) {
	p, err := service.propertyRepo.GetByID(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}

	switch {
	case p.IsSold() && p.IsBoughtBy(req.BuyerID):
		return p, nil
	case p.IsSold():
		return nil, shared.ErrPropertyAlreadySold
	case p.IsPending() && !p.IsWinner(req.BuyerID):
		return nil, shared.ErrNotWinningBidder
	case p.IsAvailable():
		return nil, shared.ErrPropertyNotPending
	default:
		return nil, shared.ErrUpdateConflict
	}
}

// Reconcile replays the follow-up steps of a sold property. Properties that
// are not sold are skipped.
func (service *PurchaseService) Reconcile(ctx context.Context, propertyID uuid.UUID) (*shared.ReconcileResult, error) {
	result := &shared.ReconcileResult{PropertyID: propertyID}

	p, err := service.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, shared.ErrPropertyNotFound) {
			result.Skipped = true
			return result, nil
		}
		return nil, err
	}

	if !p.IsSold() || p.BuyerID == nil {
		result.Skipped = true
		return result, nil
	}

	var errs []error

	added, err := service.userRepo.AddPurchased(ctx, *p.BuyerID, p.ID)
	if err != nil {
		errs = append(errs, fmt.Errorf("purchased properties: %w", err))
	}
	result.PurchaseRepaired = added

	pruned, err := service.userRepo.PullFromAllShortlists(ctx, p.ID)
	if err != nil {
		errs = append(errs, fmt.Errorf("shortlists: %w", err))
	}
	result.ShortlistsPruned = pruned

	if service.ledger != nil {
		recorded, err := service.recordPayment(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("ledger: %w", err))
		}
		result.LedgerRepaired = recorded
	}

	if result.PurchaseRepaired {
		metrics.ReconcileRepairs.WithLabelValues("purchase").Inc()
	}
	if result.ShortlistsPruned > 0 {
		metrics.ReconcileRepairs.WithLabelValues("shortlist").Add(float64(result.ShortlistsPruned))
	}
	if result.LedgerRepaired {
		metrics.ReconcileRepairs.WithLabelValues("ledger").Inc()
	}

	if result.Repaired() {
		service.logger.Info().
			Str("property_id", p.ID.String()).
			Bool("purchase_repaired", result.PurchaseRepaired).
			Int64("shortlists_pruned", result.ShortlistsPruned).
			Bool("ledger_repaired", result.LedgerRepaired).
			Msg("Reconciled sold property")
	}

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}
	return result, nil
}

// ReconcileAll runs Reconcile over every sold property. It keeps going past
// failures and returns them joined.
func (service *PurchaseService) ReconcileAll(ctx context.Context) ([]*shared.ReconcileResult, error) {
	sold, err := service.propertyRepo.ListSold(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*shared.ReconcileResult, 0, len(sold))
	var errs []error
	for _, p := range sold {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		result, err := service.Reconcile(ctx, p.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("property %s: %w", p.ID, err))
		}
		if result != nil {
			results = append(results, result)
		}
	}

	service.logger.Debug().Int("sold_properties", len(sold)).Int("failures", len(errs)).Msg("Reconcile sweep finished")

	return results, errors.Join(errs...)
}

func (service *PurchaseService) schedule(ctx context.Context, propertyID uuid.UUID, at time.Time) {
	if service.scheduler == nil {
		return
	}
	if err := service.scheduler.Schedule(ctx, propertyID, at); err != nil {
		service.logger.Error().Err(err).Str("property_id", propertyID.String()).Msg("Failed to schedule reconcile")
	}
}

// recordPayment writes the ledger row for a sold property unless one is
// already there. It returns true only when a row was written.
func (service *PurchaseService) recordPayment(ctx context.Context, p *property.Property) (bool, error) {
	_, err := service.ledger.GetByPropertyID(ctx, p.ID)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, shared.ErrPropertyNotFound):
		return false, err
	}
	return service.ledger.Record(ctx, paymentRecordFor(p))
}

func paymentRecordFor(p *property.Property) shared.PaymentRecord {
	price := p.Price
	if p.WinningPrice != nil {
		price = *p.WinningPrice
	}
	rec := shared.PaymentRecord{
		PropertyID:    p.ID,
		AccountNumber: p.PaymentAccount,
		Price:         price,
		RecordedAt:    time.Now().UTC(),
	}
	if p.BuyerID != nil {
		rec.BuyerID = *p.BuyerID
	}
	if p.SoldAt != nil {
		rec.RecordedAt = *p.SoldAt
	}
	return rec
}
