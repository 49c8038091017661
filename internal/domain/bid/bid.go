package bid

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Bid is a priced offer by a user against a property. UserName is a
// snapshot of the bidder's display name when the bid was placed and is
// never refreshed afterwards.
type Bid struct {
	UserID   uuid.UUID `json:"userId"`
	UserName string    `json:"userName"`
	Price    float64   `json:"price"`
	Date     time.Time `json:"date"`
}

// New creates a bid stamped with the given time
func New(userID uuid.UUID, userName string, price float64, at time.Time) Bid {
	return Bid{
		UserID:   userID,
		UserName: userName,
		Price:    price,
		Date:     at,
	}
}

// Matches reports whether the bid was placed by userID at exactly price
func (b Bid) Matches(userID uuid.UUID, price float64) bool {
	return b.UserID == userID && b.Price == price
}

// IsFinitePrice returns false for NaN and ±Inf.
func IsFinitePrice(price float64) bool {
	return !math.IsNaN(price) && !math.IsInf(price, 0)
}
