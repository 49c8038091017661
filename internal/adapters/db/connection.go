package db

import (
	"context"
	"database/sql"
	"fmt"

	"property-marketplace-service/internal/config"
	"property-marketplace-service/internal/domain/shared"

	_ "github.com/lib/pq"
)

// Connection represents a database connection
type Connection struct {
	db *sql.DB
}

// NewConnection creates a new database connection
func NewConnection(config *config.Config) (*Connection, error) {
	db, err := sql.Open("postgres", config.Database.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDatabaseConnection, err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &Connection{db: db}, nil
}

// NewConnectionFromDB wraps an already opened handle
func NewConnectionFromDB(db *sql.DB) *Connection {
	return &Connection{db: db}
}

// GetDB returns the underlying sql.DB instance
func (client *Connection) GetDB() *sql.DB {
	return client.db
}

// Close closes the database connection
func (client *Connection) Close() error {
	return client.db.Close()
}

// BeginTransaction starts a new database transaction
func (client *Connection) BeginTransaction(ctx context.Context) (*sql.Tx, error) {
	tx, err := client.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", shared.ErrDatabaseTransaction, err)
	}
	return tx, nil
}

// ExecuteTransaction executes a function within a transaction
func (client *Connection) ExecuteTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := client.BeginTransaction(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx failed: %v, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", shared.ErrDatabaseTransaction, err)
	}

	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS payments (
		property_id    UUID PRIMARY KEY,
		buyer_id       UUID NOT NULL,
		account_number TEXT NOT NULL,
		price          DOUBLE PRECISION NOT NULL,
		recorded_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_buyer_id ON payments (buyer_id)`,
}

// EnsureSchema creates the ledger tables if they do not exist
func (client *Connection) EnsureSchema(ctx context.Context) error {
	return client.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}
