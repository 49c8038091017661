package property

import (
	"time"

	"property-marketplace-service/internal/domain/bid"

	"github.com/google/uuid"
)

// Status represents where a property is in its sale lifecycle
type Status string

const (
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusSold      Status = "sold"
)

// next holds the only permitted successor of each status
var next = map[Status]Status{
	StatusAvailable: StatusPending,
	StatusPending:   StatusSold,
}

// CanTransitionTo returns true if moving from s to target is a single
// forward step along available -> pending -> sold
func (s Status) CanTransitionTo(target Status) bool {
	successor, ok := next[s]
	return ok && successor == target
}

// IsValid returns true for the three known statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusPending, StatusSold:
		return true
	}
	return false
}

// Property represents a listed real-estate item. PaymentAccount is the
// account number recorded at purchase and is never rendered.
type Property struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"ownerId"`
	OwnerName      string     `json:"ownerName"`
	Type           string     `json:"type"`
	Location       string     `json:"location"`
	Purpose        string     `json:"purpose"`
	Description    string     `json:"description"`
	Image          string     `json:"image"`
	Phone          string     `json:"phone"`
	Size           float64    `json:"size"`
	Price          float64    `json:"price"`
	PreviousPrice  float64    `json:"previousPrice"`
	VATRate        float64    `json:"vatRate"`
	PriceWithVAT   string     `json:"priceWithVat"`
	PriceChange    string     `json:"priceChange"`
	Status         Status     `json:"status"`
	Bids           []bid.Bid  `json:"bids"`
	WinningBidder  *uuid.UUID `json:"winningBidder,omitempty"`
	WinningPrice   *float64   `json:"winningPrice,omitempty"`
	BuyerID        *uuid.UUID `json:"buyerId,omitempty"`
	PaymentAccount string     `json:"-"`
	SoldAt         *time.Time `json:"soldAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// IsAvailable returns true if the property can still be bid on and shortlisted
func (p *Property) IsAvailable() bool {
	return p.Status == StatusAvailable
}

// IsPending returns true if a bid has been accepted and payment is awaited
func (p *Property) IsPending() bool {
	return p.Status == StatusPending
}

// IsSold returns true once the purchase has completed
func (p *Property) IsSold() bool {
	return p.Status == StatusSold
}

// IsOwnedBy returns true if userID is the property's owner
func (p *Property) IsOwnedBy(userID uuid.UUID) bool {
	return p.OwnerID == userID
}

// IsWinner returns true if userID is the accepted bidder
func (p *Property) IsWinner(userID uuid.UUID) bool {
	return p.WinningBidder != nil && *p.WinningBidder == userID
}

// IsBoughtBy returns true if userID completed the purchase
func (p *Property) IsBoughtBy(userID uuid.UUID) bool {
	return p.BuyerID != nil && *p.BuyerID == userID
}

// HasBid reports whether a bid by userID at price exists
func (p *Property) HasBid(userID uuid.UUID, price float64) bool {
	for _, b := range p.Bids {
		if b.Matches(userID, price) {
			return true
		}
	}
	return false
}

// AppendBid adds a bid to the end of the sequence
func (p *Property) AppendBid(b bid.Bid) {
	p.Bids = append(p.Bids, b)
	p.UpdatedAt = b.Date
}

// AcceptBid records the winner and moves the property to pending.
// It returns false without modifying anything when the transition is
// not allowed.
func (p *Property) AcceptBid(bidderID uuid.UUID, price float64, at time.Time) bool {
	if !p.Status.CanTransitionTo(StatusPending) {
		return false
	}
	winner := bidderID
	winningPrice := price
	p.WinningBidder = &winner
	p.WinningPrice = &winningPrice
	p.Status = StatusPending
	p.UpdatedAt = at
	return true
}

// MarkSold completes the sale to buyerID. It returns false without
// modifying anything when the transition is not allowed.
func (p *Property) MarkSold(buyerID uuid.UUID, accountNumber string, at time.Time) bool {
	if !p.Status.CanTransitionTo(StatusSold) {
		return false
	}
	buyer := buyerID
	soldAt := at
	p.BuyerID = &buyer
	p.PaymentAccount = accountNumber
	p.SoldAt = &soldAt
	p.Status = StatusSold
	p.UpdatedAt = at
	return true
}

// Clone returns a deep copy of the property
func (p *Property) Clone() *Property {
	c := *p
	if p.Bids != nil {
		c.Bids = make([]bid.Bid, len(p.Bids))
		copy(c.Bids, p.Bids)
	}
	if p.WinningBidder != nil {
		v := *p.WinningBidder
		c.WinningBidder = &v
	}
	if p.WinningPrice != nil {
		v := *p.WinningPrice
		c.WinningPrice = &v
	}
	if p.BuyerID != nil {
		v := *p.BuyerID
		c.BuyerID = &v
	}
	if p.SoldAt != nil {
		v := *p.SoldAt
		c.SoldAt = &v
	}
	return &c
}
