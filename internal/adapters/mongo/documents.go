package mongo

import (
	"fmt"
	"time"

	"property-marketplace-service/internal/domain/bid"
	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"

	"github.com/google/uuid"
)

// IDs are stored as canonical UUID strings.

type bidDocument struct {
	UserID   string    `bson:"userId"`
	UserName string    `bson:"userName"`
	Price    float64   `bson:"price"`
	Date     time.Time `bson:"date"`
}

type propertyDocument struct {
	ID             string        `bson:"_id"`
	OwnerID        string        `bson:"ownerId"`
	OwnerName      string        `bson:"ownerName"`
	Type           string        `bson:"type"`
	Location       string        `bson:"location"`
	Purpose        string        `bson:"purpose"`
	Description    string        `bson:"description"`
	Image          string        `bson:"image"`
	Phone          string        `bson:"phone"`
	Size           float64       `bson:"size"`
	Price          float64       `bson:"price"`
	PreviousPrice  float64       `bson:"previousPrice"`
	VATRate        float64       `bson:"vatRate"`
	PriceWithVAT   string        `bson:"priceWithVat"`
	PriceChange    string        `bson:"priceChange"`
	Status         string        `bson:"status"`
	Bids           []bidDocument `bson:"bids"`
	WinningBidder  *string       `bson:"winningBidder,omitempty"`
	WinningPrice   *float64      `bson:"winningPrice,omitempty"`
	BuyerID        *string       `bson:"buyerId,omitempty"`
	PaymentAccount string        `bson:"paymentAccount,omitempty"`
	SoldAt         *time.Time    `bson:"soldAt,omitempty"`
	CreatedAt      time.Time     `bson:"createdAt"`
	UpdatedAt      time.Time     `bson:"updatedAt"`
}

type reviewDocument struct {
	ReviewerID   string    `bson:"reviewerId"`
	ReviewerName string    `bson:"reviewerName"`
	Text         string    `bson:"text"`
	Date         time.Time `bson:"date"`
}

type userDocument struct {
	ID                  string           `bson:"_id"`
	Name                string           `bson:"name"`
	Email               string           `bson:"email"`
	Phone               string           `bson:"phone"`
	Shortlist           []string         `bson:"shortlist"`
	PurchasedProperties []string         `bson:"purchasedProperties"`
	TrustedBy           []string         `bson:"trustedBy"`
	GoldenBadges        []string         `bson:"goldenBadges"`
	Reviews             []reviewDocument `bson:"reviews"`
	CreatedAt           time.Time        `bson:"createdAt"`
}

func newBidDocument(b bid.Bid) bidDocument {
	return bidDocument{
		UserID:   b.UserID.String(),
		UserName: b.UserName,
		Price:    b.Price,
		Date:     b.Date,
	}
}

func newPropertyDocument(p *property.Property) *propertyDocument {
	bids := make([]bidDocument, 0, len(p.Bids))
	for _, b := range p.Bids {
		bids = append(bids, newBidDocument(b))
	}
	return &propertyDocument{
		ID:             p.ID.String(),
		OwnerID:        p.OwnerID.String(),
		OwnerName:      p.OwnerName,
		Type:           p.Type,
		Location:       p.Location,
		Purpose:        p.Purpose,
		Description:    p.Description,
		Image:          p.Image,
		Phone:          p.Phone,
		Size:           p.Size,
		Price:          p.Price,
		PreviousPrice:  p.PreviousPrice,
		VATRate:        p.VATRate,
		PriceWithVAT:   p.PriceWithVAT,
		PriceChange:    p.PriceChange,
		Status:         string(p.Status),
		Bids:           bids,
		WinningBidder:  idPtrString(p.WinningBidder),
		WinningPrice:   p.WinningPrice,
		BuyerID:        idPtrString(p.BuyerID),
		PaymentAccount: p.PaymentAccount,
		SoldAt:         p.SoldAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (d *propertyDocument) toDomain() (*property.Property, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := parseID(d.OwnerID)
	if err != nil {
		return nil, err
	}
	winner, err := parseIDPtr(d.WinningBidder)
	if err != nil {
		return nil, err
	}
	buyer, err := parseIDPtr(d.BuyerID)
	if err != nil {
		return nil, err
	}

	bids := make([]bid.Bid, 0, len(d.Bids))
	for _, b := range d.Bids {
		userID, err := parseID(b.UserID)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid.New(userID, b.UserName, b.Price, b.Date))
	}

	return &property.Property{
		ID:             id,
		OwnerID:        ownerID,
		OwnerName:      d.OwnerName,
		Type:           d.Type,
		Location:       d.Location,
		Purpose:        d.Purpose,
		Description:    d.Description,
		Image:          d.Image,
		Phone:          d.Phone,
		Size:           d.Size,
		Price:          d.Price,
		PreviousPrice:  d.PreviousPrice,
		VATRate:        d.VATRate,
		PriceWithVAT:   d.PriceWithVAT,
		PriceChange:    d.PriceChange,
		Status:         property.Status(d.Status),
		Bids:           bids,
		WinningBidder:  winner,
		WinningPrice:   d.WinningPrice,
		BuyerID:        buyer,
		PaymentAccount: d.PaymentAccount,
		SoldAt:         d.SoldAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}

func newUserDocument(u *shared.User) *userDocument {
	reviews := make([]reviewDocument, 0, len(u.Reviews))
	for _, r := range u.Reviews {
		reviews = append(reviews, newReviewDocument(r))
	}
	return &userDocument{
		ID:                  u.ID.String(),
		Name:                u.Name,
		Email:               u.Email,
		Phone:               u.Phone,
		Shortlist:           idStrings(u.Shortlist),
		PurchasedProperties: idStrings(u.PurchasedProperties),
		TrustedBy:           idStrings(u.TrustedBy),
		GoldenBadges:        idStrings(u.GoldenBadges),
		Reviews:             reviews,
		CreatedAt:           u.CreatedAt,
	}
}

func newReviewDocument(r shared.Review) reviewDocument {
	return reviewDocument{
		ReviewerID:   r.ReviewerID.String(),
		ReviewerName: r.ReviewerName,
		Text:         r.Text,
		Date:         r.Date,
	}
}

func (d *userDocument) toDomain() (*shared.User, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return nil, err
	}

	user := &shared.User{
		ID:        id,
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		CreatedAt: d.CreatedAt,
	}
	if user.Shortlist, err = parseIDs(d.Shortlist); err != nil {
		return nil, err
	}
	if user.PurchasedProperties, err = parseIDs(d.PurchasedProperties); err != nil {
		return nil, err
	}
	if user.TrustedBy, err = parseIDs(d.TrustedBy); err != nil {
		return nil, err
	}
	if user.GoldenBadges, err = parseIDs(d.GoldenBadges); err != nil {
		return nil, err
	}

	user.Reviews = make([]shared.Review, 0, len(d.Reviews))
	for _, r := range d.Reviews {
		reviewerID, err := parseID(r.ReviewerID)
		if err != nil {
			return nil, err
		}
		user.Reviews = append(user.Reviews, shared.Review{
			ReviewerID:   reviewerID,
			ReviewerName: r.ReviewerName,
			Text:         r.Text,
			Date:         r.Date,
		})
	}
	return user, nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: stored id %q: %v", shared.ErrDatabaseQuery, s, err)
	}
	return id, nil
}

func parseIDPtr(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := parseID(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := parseID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func idPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
