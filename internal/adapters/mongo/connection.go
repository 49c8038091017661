package mongo

import (
	"context"
	"fmt"
	"time"

	"property-marketplace-service/internal/config"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	propertiesCollection = "properties"
	usersCollection      = "users"
)

// Connection wraps the document store client and database handle
type Connection struct {
	client *mongo.Client
	db     *mongo.Database
	logger zerolog.Logger
}

type ConnectionParams struct {
	Config *config.StoreConfig
	Logger zerolog.Logger
}

// NewConnection connects to MongoDB and verifies the connection
func NewConnection(ctx context.Context, params *ConnectionParams) (*Connection, error) {
	logger := params.Logger.With().Str("component", "mongo").Logger()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(params.Config.MongoURI).
		SetMaxPoolSize(25).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info().Str("database", params.Config.MongoDatabase).Msg("Document store connection established")

	return &Connection{
		client: client,
		db:     client.Database(params.Config.MongoDatabase),
		logger: logger,
	}, nil
}

// EnsureIndexes creates the indexes the repositories rely on
func (c *Connection) EnsureIndexes(ctx context.Context) error {
	_, err := c.db.Collection(propertiesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create property indexes: %w", err)
	}

	_, err = c.db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "shortlist", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	return nil
}

// Database returns the database handle
func (c *Connection) Database() *mongo.Database {
	return c.db
}

// Close disconnects from the document store
func (c *Connection) Close(ctx context.Context) error {
	if c.client != nil {
		c.logger.Info().Msg("Closing document store connection")
		return c.client.Disconnect(ctx)
	}
	return nil
}
