package shared

import (
	"time"

	"github.com/google/uuid"
)

// User represents a marketplace participant. The same document backs the
// buyer, bidder and seller roles.
type User struct {
	ID                  uuid.UUID   `json:"id"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	Phone               string      `json:"phone"`
	Shortlist           []uuid.UUID `json:"shortlist"`
	PurchasedProperties []uuid.UUID `json:"purchasedProperties"`
	TrustedBy           []uuid.UUID `json:"trustedBy"`
	GoldenBadges        []uuid.UUID `json:"goldenBadges"`
	Reviews             []Review    `json:"reviews"`
	CreatedAt           time.Time   `json:"createdAt"`
}

// Review is a free-text review left on a seller
type Review struct {
	ReviewerID   uuid.UUID `json:"reviewerId"`
	ReviewerName string    `json:"reviewerName"`
	Text         string    `json:"text"`
	Date         time.Time `json:"date"`
}

// HasPurchased returns true if propertyID is in the user's purchase history
func (u *User) HasPurchased(propertyID uuid.UUID) bool {
	return containsID(u.PurchasedProperties, propertyID)
}

// HasShortlisted returns true if propertyID is on the user's shortlist
func (u *User) HasShortlisted(propertyID uuid.UUID) bool {
	return containsID(u.Shortlist, propertyID)
}

// Clone returns a deep copy of the user
func (u *User) Clone() *User {
	c := *u
	c.Shortlist = cloneIDs(u.Shortlist)
	c.PurchasedProperties = cloneIDs(u.PurchasedProperties)
	c.TrustedBy = cloneIDs(u.TrustedBy)
	c.GoldenBadges = cloneIDs(u.GoldenBadges)
	if u.Reviews != nil {
		c.Reviews = make([]Review, len(u.Reviews))
		copy(c.Reviews, u.Reviews)
	}
	return &c
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func cloneIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return nil
	}
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}
