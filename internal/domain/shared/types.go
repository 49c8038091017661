package shared

import (
	"time"

	"property-marketplace-service/internal/domain/property"

	"github.com/google/uuid"
)

// PurchaseResult represents the outcome of a completed purchase. Resumed is
// true when the property was already sold to the caller and only the
// follow-up steps ran.
type PurchaseResult struct {
	Property         *property.Property
	Resumed          bool
	ShortlistsPruned int64
	LedgerRecorded   bool
}

// ReconcileResult reports what a reconcile pass repaired for one property
type ReconcileResult struct {
	PropertyID       uuid.UUID
	Skipped          bool
	PurchaseRepaired bool
	ShortlistsPruned int64
	LedgerRepaired   bool
}

// Repaired returns true if anything was changed
func (r ReconcileResult) Repaired() bool {
	return r.PurchaseRepaired || r.ShortlistsPruned > 0 || r.LedgerRepaired
}

// PaymentRecord is the ledger entry written once per sold property
type PaymentRecord struct {
	PropertyID    uuid.UUID `json:"propertyId"`
	BuyerID       uuid.UUID `json:"buyerId"`
	AccountNumber string    `json:"-"`
	Price         float64   `json:"price"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// Profile is the caller's own view of their user document
type Profile struct {
	User                       *User                `json:"user"`
	PurchasedPropertiesDetails []*property.Property `json:"purchasedPropertiesDetails"`
}

// SellerProfile is the public view of a seller
type SellerProfile struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	TrustCount       int       `json:"trustCount"`
	GoldenBadgeCount int       `json:"goldenBadgeCount"`
	Reviews          []Review  `json:"reviews"`
}
