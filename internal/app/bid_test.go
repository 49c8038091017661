package app

import (
	"context"
	"math"
	"testing"

	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/inbound"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceBidAppendsWithNameSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "alice")
	bidder := env.createUser(t, "bob")
	p := env.createListing(t, owner, inbound.CreateListingRequest{Type: "House"})

	prices := []float64{100, 250.5, 250.5, -3}
	for _, price := range prices {
		env.bid(t, p, bidder, price)
	}

	// renaming the bidder later does not touch stored bids
	_, err := env.users.UpdateProfile(ctx, bidder.ID, "robert", "")
	require.NoError(t, err)

	stored, err := env.propertyService.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Bids, len(prices))
	for i, b := range stored.Bids {
		assert.Equal(t, prices[i], b.Price)
		assert.Equal(t, "bob", b.UserName)
		assert.Equal(t, bidder.ID, b.UserID)
	}
	assert.Equal(t, property.StatusAvailable, stored.Status)
}

func TestPlaceBidOwnerMayBid(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	p := env.createListing(t, owner, inbound.CreateListingRequest{})

	env.bid(t, p, owner, 10)
}

func TestPlaceBidFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "alice")
	bidder := env.createUser(t, "bob")
	p := env.createListing(t, owner, inbound.CreateListingRequest{})

	_, err := env.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{PropertyID: p.ID, UserID: bidder.ID, Price: math.NaN()})
	assert.ErrorIs(t, err, shared.ErrInvalidPrice)

	_, err = env.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{PropertyID: p.ID, UserID: uuid.New(), Price: 1})
	assert.ErrorIs(t, err, shared.ErrCallerUnknown)
	assert.Equal(t, shared.KindForbidden, shared.KindOf(err))

	_, err = env.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{PropertyID: uuid.New(), UserID: bidder.ID, Price: 1})
	assert.ErrorIs(t, err, shared.ErrPropertyNotFound)
}

func TestPlaceBidOnSoldProperty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "alice")
	bidder := env.createUser(t, "bob")
	p := env.createListing(t, owner, inbound.CreateListingRequest{})

	env.bid(t, p, bidder, 10)
	env.accept(t, p, owner, bidder, 10)
	_, err := env.purchaseService.Purchase(ctx, inbound.PurchaseRequest{PropertyID: p.ID, BuyerID: bidder.ID, AccountNumber: "ACC"})
	require.NoError(t, err)

	_, err = env.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{PropertyID: p.ID, UserID: bidder.ID, Price: 20})
	assert.ErrorIs(t, err, shared.ErrPropertyAlreadySold)
}

func TestAcceptBidByNonOwnerIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "alice")
	bidder := env.createUser(t, "bob")
	p := env.createListing(t, owner, inbound.CreateListingRequest{})
	env.bid(t, p, bidder, 500)

	_, err := env.bidService.AcceptBid(ctx, inbound.AcceptBidRequest{
		PropertyID: p.ID, CallerID: bidder.ID, BidUserID: bidder.ID, BidPrice: 500,
	})
	assert.ErrorIs(t, err, shared.ErrNotPropertyOwner)

	stored, err := env.propertyService.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, property.StatusAvailable, stored.Status)
	assert.Nil(t, stored.WinningBidder)
	assert.Nil(t, stored.WinningPrice)
}

func TestAcceptBidAcceptsAnyExistingBid(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	low := env.createUser(t, "bob")
	high := env.createUser(t, "carol")
	p := env.createListing(t, owner, inbound.CreateListingRequest{})
	env.bid(t, p, low, 100)
	env.bid(t, p, high, 900)

	env.accept(t, p, owner, low, 100)

	stored, err := env.propertyService.GetProperty(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsWinner(low.ID))
	assert.Equal(t, 100.0, *stored.WinningPrice)
}

func TestAcceptBidUnknownBid(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	bidder := env.createUser(t, "bob")
	p := env.createListing(t, owner, inbound.CreateListingRequest{})
	env.bid(t, p, bidder, 500)

	_, err := env.bidService.AcceptBid(context.Background(), inbound.AcceptBidRequest{
		PropertyID: p.ID, CallerID: owner.ID, BidUserID: bidder.ID, BidPrice: 501,
	})
	assert.ErrorIs(t, err, shared.ErrBidNotFound)
	assert.Equal(t, shared.KindInvalidInput, shared.KindOf(err))
}

func TestAcceptBidTwiceIsConflict(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	x := env.createUser(t, "x")
	y := env.createUser(t, "y")
	p := env.createListing(t, owner, inbound.CreateListingRequest{})
	env.bid(t, p, x, 500)
	env.bid(t, p, y, 600)
	env.accept(t, p, owner, y, 600)

	_, err := env.bidService.AcceptBid(context.Background(), inbound.AcceptBidRequest{
		PropertyID: p.ID, CallerID: owner.ID, BidUserID: x.ID, BidPrice: 500,
	})
	assert.ErrorIs(t, err, shared.ErrPropertyNotAvailable)

	stored, err := env.propertyService.GetProperty(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsWinner(y.ID))
	assert.Equal(t, 600.0, *stored.WinningPrice)
}

func TestAcceptBidNotFound(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")

	_, err := env.bidService.AcceptBid(context.Background(), inbound.AcceptBidRequest{
		PropertyID: uuid.New(), CallerID: owner.ID, BidUserID: owner.ID, BidPrice: 1,
	})
	assert.ErrorIs(t, err, shared.ErrPropertyNotFound)
}
