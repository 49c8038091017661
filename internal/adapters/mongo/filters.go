package mongo

import (
	"regexp"
	"time"

	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// buildListingFilter turns a listing filter into a query document. Text
// terms are escaped so user input is always matched literally.
func buildListingFilter(filter outbound.ListingFilter) bson.M {
	query := bson.M{}

	if filter.Type != "" {
		query["type"] = containsRegex(filter.Type)
	}
	if filter.Location != "" {
		query["location"] = containsRegex(filter.Location)
	}
	if filter.Purpose != "" {
		query["purpose"] = containsRegex(filter.Purpose)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		query["status"] = bson.M{"$in": statuses}
	}

	return query
}

func containsRegex(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

// acceptBidUpdate returns the guard and update for accepting a bid. The
// guard requires the owner, status=available and a matching bid.
func acceptBidUpdate(id, ownerID, bidderID uuid.UUID, price float64, at time.Time) (bson.M, bson.M) {
	filter := bson.M{
		"_id":     id.String(),
		"ownerId": ownerID.String(),
		"status":  string(property.StatusAvailable),
		"bids": bson.M{"$elemMatch": bson.M{
			"userId": bidderID.String(),
			"price":  price,
		}},
	}
	update := bson.M{"$set": bson.M{
		"winningBidder": bidderID.String(),
		"winningPrice":  price,
		"status":        string(property.StatusPending),
		"updatedAt":     at,
	}}
	return filter, update
}

// markSoldUpdate returns the guard and update for completing a sale. The
// guard requires status=pending and the buyer being the winning bidder.
func markSoldUpdate(id, buyerID uuid.UUID, accountNumber string, at time.Time) (bson.M, bson.M) {
	filter := bson.M{
		"_id":           id.String(),
		"status":        string(property.StatusPending),
		"winningBidder": buyerID.String(),
	}
	update := bson.M{"$set": bson.M{
		"status":         string(property.StatusSold),
		"buyerId":        buyerID.String(),
		"paymentAccount": accountNumber,
		"soldAt":         at,
		"updatedAt":      at,
	}}
	return filter, update
}

// pushBidUpdate returns the guard and update for appending a bid. Sold
// properties no longer take bids.
func pushBidUpdate(id uuid.UUID, b bidDocument) (bson.M, bson.M) {
	filter := bson.M{
		"_id":    id.String(),
		"status": bson.M{"$ne": string(property.StatusSold)},
	}
	update := bson.M{
		"$push": bson.M{"bids": b},
		"$set":  bson.M{"updatedAt": b.Date},
	}
	return filter, update
}
