package app

import (
	"context"
	"math"
	"testing"

	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/inbound"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateListing(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")

	p := env.createListing(t, owner, inbound.CreateListingRequest{
		Type:          "Apartment",
		Location:      "Lahore",
		Purpose:       "Sale",
		Price:         1000,
		PreviousPrice: 800,
		VATRate:       10,
	})

	assert.Equal(t, property.StatusAvailable, p.Status)
	assert.Empty(t, p.Bids)
	assert.Equal(t, owner.ID, p.OwnerID)
	assert.Equal(t, "alice", p.OwnerName)
	assert.Equal(t, "1100.00", p.PriceWithVAT)
	assert.Equal(t, "200.00 (Increment)", p.PriceChange)
	assert.Contains(t, env.cache.recorded(), invalidation{reason: outbound.EventTypeListingCreated, propertyID: p.ID})

	stored, err := env.propertyService.GetProperty(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, stored.ID)
}

func TestCreateListingRejectsNonFinite(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")

	_, err := env.propertyService.CreateListing(context.Background(), inbound.CreateListingRequest{
		OwnerID: owner.ID,
		Price:   math.Inf(1),
	})
	assert.ErrorIs(t, err, shared.ErrInvalidNumber)
}

func TestCreateListingUnknownOwner(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.propertyService.CreateListing(context.Background(), inbound.CreateListingRequest{OwnerID: uuid.New()})
	assert.ErrorIs(t, err, shared.ErrCallerUnknown)
}

func TestGetPropertyNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.propertyService.GetProperty(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrPropertyNotFound)
}

func TestListPropertiesFilters(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	bidder := env.createUser(t, "bob")

	house := env.createListing(t, owner, inbound.CreateListingRequest{Type: "House", Location: "Karachi", Purpose: "Sale"})
	flat := env.createListing(t, owner, inbound.CreateListingRequest{Type: "Apartment", Location: "Lahore", Purpose: "Rent"})
	sold := env.createListing(t, owner, inbound.CreateListingRequest{Type: "House", Location: "Lahore", Purpose: "Sale"})

	env.bid(t, sold, bidder, 10)
	env.accept(t, sold, owner, bidder, 10)
	_, err := env.purchaseService.Purchase(context.Background(), inbound.PurchaseRequest{
		PropertyID: sold.ID, BuyerID: bidder.ID, AccountNumber: "ACC",
	})
	require.NoError(t, err)

	ctx := context.Background()

	all, err := env.propertyService.ListProperties(ctx, inbound.ListPropertiesRequest{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{house.ID, flat.ID}, ids(all))

	houses, err := env.propertyService.ListProperties(ctx, inbound.ListPropertiesRequest{Type: "hou"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{house.ID}, ids(houses))

	lahoreRent, err := env.propertyService.ListProperties(ctx, inbound.ListPropertiesRequest{Location: "LAHORE", Purpose: "rent"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{flat.ID}, ids(lahoreRent))

	// regex metacharacters are matched literally
	none, err := env.propertyService.ListProperties(ctx, inbound.ListPropertiesRequest{Type: ".*"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListPropertiesPendingVisibility(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	bidder := env.createUser(t, "bob")

	p := env.createListing(t, owner, inbound.CreateListingRequest{Type: "House"})
	env.bid(t, p, bidder, 10)
	env.accept(t, p, owner, bidder, 10)

	listed, err := env.propertyService.ListProperties(context.Background(), inbound.ListPropertiesRequest{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.ID}, ids(listed))

	env.propertyService.includePending = false
	env.cache.Invalidate(context.Background(), outbound.EventTypeBidAccepted, p.ID)

	listed, err = env.propertyService.ListProperties(context.Background(), inbound.ListPropertiesRequest{})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestListPropertiesUsesCache(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	env.createListing(t, owner, inbound.CreateListingRequest{Type: "House"})

	ctx := context.Background()
	first, err := env.propertyService.ListProperties(ctx, inbound.ListPropertiesRequest{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// written straight to the store, so only an invalidation makes it visible
	require.NoError(t, env.properties.Create(ctx, &property.Property{ID: uuid.New(), Status: property.StatusAvailable}))

	cached, err := env.propertyService.ListProperties(ctx, inbound.ListPropertiesRequest{})
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	env.cache.Invalidate(ctx, outbound.EventTypeListingCreated, uuid.Nil)
	fresh, err := env.propertyService.ListProperties(ctx, inbound.ListPropertiesRequest{})
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

// listThenMutate returns the store's listing and then runs mutate, as if a
// write landed between the read and the cache fill
type listThenMutate struct {
	outbound.PropertyRepository
	mutate func()
}

func (l *listThenMutate) List(ctx context.Context, filter outbound.ListingFilter) ([]*property.Property, error) {
	properties, err := l.PropertyRepository.List(ctx, filter)
	if l.mutate != nil {
		l.mutate()
		l.mutate = nil
	}
	return properties, err
}

func TestListPropertiesDropsResultReadBeforeInvalidation(t *testing.T) {
	env := newTestEnv(t)
	env.propertyService.includePending = false
	owner := env.createUser(t, "alice")
	bidder := env.createUser(t, "bob")
	p := env.createListing(t, owner, inbound.CreateListingRequest{Type: "House"})
	env.bid(t, p, bidder, 10)

	ctx := context.Background()
	env.propertyService.propertyRepo = &listThenMutate{
		PropertyRepository: env.properties,
		mutate:             func() { env.accept(t, p, owner, bidder, 10) },
	}

	stale, err := env.propertyService.ListProperties(ctx, inbound.ListPropertiesRequest{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.ID}, ids(stale))

	invalidations := env.cache.recorded()
	require.NotEmpty(t, invalidations)
	assert.Equal(t, invalidation{reason: outbound.EventTypeBidAccepted, propertyID: p.ID}, invalidations[len(invalidations)-1])

	fresh, err := env.propertyService.ListProperties(ctx, inbound.ListPropertiesRequest{})
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func ids(properties []*property.Property) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(properties))
	for _, p := range properties {
		out = append(out, p.ID)
	}
	return out
}
