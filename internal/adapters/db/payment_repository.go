package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
)

// PaymentRepository implements outbound.PaymentLedger on PostgreSQL
type PaymentRepository struct {
	conn *Connection
}

var _ outbound.PaymentLedger = (*PaymentRepository)(nil)

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(conn *Connection) *PaymentRepository {
	return &PaymentRepository{conn: conn}
}

// Record inserts the payment unless the property already has one
func (r *PaymentRepository) Record(ctx context.Context, rec shared.PaymentRecord) (bool, error) {
	query := `
		INSERT INTO payments (property_id, buyer_id, account_number, price, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (property_id) DO NOTHING
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query,
		rec.PropertyID,
		rec.BuyerID,
		rec.AccountNumber,
		rec.Price,
		rec.RecordedAt,
	)
	if err != nil {
		return false, fmt.Errorf("%w: failed to record payment: %v", shared.ErrDatabaseQuery, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

// GetByPropertyID retrieves the payment for a property
func (r *PaymentRepository) GetByPropertyID(ctx context.Context, propertyID uuid.UUID) (*shared.PaymentRecord, error) {
	query := `
		SELECT property_id, buyer_id, account_number, price, recorded_at
		FROM payments
		WHERE property_id = $1
	`

	var rec shared.PaymentRecord
	err := r.conn.GetDB().QueryRowContext(ctx, query, propertyID).Scan(
		&rec.PropertyID,
		&rec.BuyerID,
		&rec.AccountNumber,
		&rec.Price,
		&rec.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("%w: failed to get payment: %v", shared.ErrDatabaseQuery, err)
	}

	return &rec, nil
}
