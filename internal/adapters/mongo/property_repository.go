package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"property-marketplace-service/internal/domain/bid"
	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PropertyRepository implements outbound.PropertyRepository on MongoDB
type PropertyRepository struct {
	collection *mongo.Collection
	logger     zerolog.Logger
}

var _ outbound.PropertyRepository = (*PropertyRepository)(nil)

type PropertyRepositoryParams struct {
	DB     *mongo.Database
	Logger zerolog.Logger
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(params *PropertyRepositoryParams) *PropertyRepository {
	return &PropertyRepository{
		collection: params.DB.Collection(propertiesCollection),
		logger:     params.Logger.With().Str("component", "property_repository").Logger(),
	}
}

// Create stores a new property
func (r *PropertyRepository) Create(ctx context.Context, p *property.Property) error {
	if _, err := r.collection.InsertOne(ctx, newPropertyDocument(p)); err != nil {
		r.logger.Error().Err(err).Str("property_id", p.ID.String()).Msg("Failed to insert property")
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

// GetByID retrieves a property by ID
func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	var doc propertyDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return doc.toDomain()
}

// GetByIDs retrieves the properties with the given IDs
func (r *PropertyRepository) GetByIDs(ctx context.Context, ids []uuid.UUID, status *property.Status) ([]*property.Property, error) {
	if len(ids) == 0 {
		return []*property.Property{}, nil
	}

	query := bson.M{"_id": bson.M{"$in": idStrings(ids)}}
	if status != nil {
		query["status"] = string(*status)
	}
	return r.find(ctx, query)
}

// List retrieves properties matching the filter
func (r *PropertyRepository) List(ctx context.Context, filter outbound.ListingFilter) ([]*property.Property, error) {
	return r.find(ctx, buildListingFilter(filter))
}

// ListSold retrieves every sold property
func (r *PropertyRepository) ListSold(ctx context.Context) ([]*property.Property, error) {
	return r.find(ctx, bson.M{"status": string(property.StatusSold)})
}

// PushBid appends a bid with $push unless the property is sold
func (r *PropertyRepository) PushBid(ctx context.Context, id uuid.UUID, b bid.Bid) (*property.Property, error) {
	filter, update := pushBidUpdate(id, newBidDocument(b))
	return r.findOneAndUpdate(ctx, filter, update)
}

// AcceptBid sets the winner when the owner, status and bid guards hold
func (r *PropertyRepository) AcceptBid(ctx context.Context, id, ownerID, bidderID uuid.UUID, price float64, at time.Time) (*property.Property, error) {
	filter, update := acceptBidUpdate(id, ownerID, bidderID, price, at)
	return r.findOneAndUpdate(ctx, filter, update)
}

// MarkSold completes the sale when the property is pending and buyerID won
func (r *PropertyRepository) MarkSold(ctx context.Context, id, buyerID uuid.UUID, accountNumber string, at time.Time) (*property.Property, error) {
	filter, update := markSoldUpdate(id, buyerID, accountNumber, at)
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *PropertyRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*property.Property, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc propertyDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.ErrUpdateConflict
		}
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	return doc.toDomain()
}

func (r *PropertyRepository) find(ctx context.Context, query bson.M) ([]*property.Property, error) {
	cursor, err := r.collection.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []propertyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}

	properties := make([]*property.Property, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toDomain()
		if err != nil {
			r.logger.Warn().Err(err).Str("property_id", docs[i].ID).Msg("Skipping malformed property document")
			continue
		}
		properties = append(properties, p)
	}
	return properties, nil
}
