package mongo

import (
	"context"
	"errors"
	"fmt"

	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository implements outbound.UserRepository on MongoDB
type UserRepository struct {
	collection *mongo.Collection
	logger     zerolog.Logger
}

var _ outbound.UserRepository = (*UserRepository)(nil)

type UserRepositoryParams struct {
	DB     *mongo.Database
	Logger zerolog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(params *UserRepositoryParams) *UserRepository {
	return &UserRepository{
		collection: params.DB.Collection(usersCollection),
		logger:     params.Logger.With().Str("component", "user_repository").Logger(),
	}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	var doc userDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toDomain()
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *shared.User) error {
	if _, err := r.collection.InsertOne(ctx, newUserDocument(user)); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateProfile sets name and phone
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) (*shared.User, error) {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"name": name, "phone": phone}})
}

// AddPurchased appends propertyID unless it is already present. The guard
// lives in the filter so concurrent retries cannot append twice.
func (r *UserRepository) AddPurchased(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	filter := bson.M{
		"_id":                 userID.String(),
		"purchasedProperties": bson.M{"$ne": propertyID.String()},
	}
	update := bson.M{"$push": bson.M{"purchasedProperties": propertyID.String()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to add purchased property: %w", err)
	}
	if result.MatchedCount == 1 {
		return true, nil
	}

	// no match: either already recorded or no such user
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": userID.String()})
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	if count == 0 {
		return false, shared.ErrUserNotFound
	}
	return false, nil
}

// AddToShortlist adds propertyID to the shortlist with $addToSet
func (r *UserRepository) AddToShortlist(ctx context.Context, userID, propertyID uuid.UUID) error {
	_, err := r.updateByID(ctx, userID, bson.M{"$addToSet": bson.M{"shortlist": propertyID.String()}})
	return err
}

// PullFromAllShortlists removes propertyID from every user's shortlist
func (r *UserRepository) PullFromAllShortlists(ctx context.Context, propertyID uuid.UUID) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"shortlist": propertyID.String()},
		bson.M{"$pull": bson.M{"shortlist": propertyID.String()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune shortlists: %w", err)
	}
	return result.ModifiedCount, nil
}

// AddReview appends a review with $push
func (r *UserRepository) AddReview(ctx context.Context, sellerID uuid.UUID, review shared.Review) (*shared.User, error) {
	return r.updateByID(ctx, sellerID, bson.M{"$push": bson.M{"reviews": newReviewDocument(review)}})
}

// AddTrust adds endorserID to trustedBy with $addToSet
func (r *UserRepository) AddTrust(ctx context.Context, sellerID, endorserID uuid.UUID) (*shared.User, error) {
	return r.updateByID(ctx, sellerID, bson.M{"$addToSet": bson.M{"trustedBy": endorserID.String()}})
}

// AddGoldenBadge adds endorserID to goldenBadges with $addToSet
func (r *UserRepository) AddGoldenBadge(ctx context.Context, sellerID, endorserID uuid.UUID) (*shared.User, error) {
	return r.updateByID(ctx, sellerID, bson.M{"$addToSet": bson.M{"goldenBadges": endorserID.String()}})
}

func (r *UserRepository) updateByID(ctx context.Context, id uuid.UUID, update bson.M) (*shared.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return doc.toDomain()
}
