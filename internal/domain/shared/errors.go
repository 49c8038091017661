package shared

import "errors"

// Domain-specific errors
var (
	// Property errors
	ErrPropertyNotFound     = errors.New("property not found")
	ErrPropertyNotAvailable = errors.New("property is not available")
	ErrPropertyNotPending   = errors.New("property has no accepted bid awaiting purchase")
	ErrPropertyAlreadySold  = errors.New("property already sold")
	ErrInvalidPrice         = errors.New("price must be a finite number")

	// Bid errors
	ErrBidNotFound        = errors.New("no bid with that user and price exists on the property")
	ErrNotPropertyOwner   = errors.New("only the property owner can accept a bid")
	ErrNotWinningBidder   = errors.New("only the winning bidder can complete the purchase")
	ErrCallerUnknown      = errors.New("caller could not be resolved")
	ErrUpdateConflict     = errors.New("conditional update matched no document")
	ErrAccountNumberBlank = errors.New("account number is required")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrSelfEndorsement    = errors.New("users cannot review or endorse themselves")
	ErrReviewTextRequired = errors.New("review text is required")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid or expired token")

	// Validation errors
	ErrInvalidID      = errors.New("invalid id format")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidNumber  = errors.New("numeric field is not a finite number")

	// Database errors
	ErrDatabaseConnection  = errors.New("database connection failed")
	ErrDatabaseQuery       = errors.New("database query failed")
	ErrDatabaseTransaction = errors.New("database transaction failed")

	// Broadcasting errors
	ErrBroadcastFailed = errors.New("broadcast failed")
	ErrSubscribeFailed = errors.New("subscribe failed")
)

// Kind classifies an error for the transport edge
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidInput
	KindConflict
	KindUnauthorized
)

// String returns the class name rendered in error responses
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

var kinds = []struct {
	kind Kind
	errs []error
}{
	{KindNotFound, []error{ErrPropertyNotFound, ErrUserNotFound}},
	{KindForbidden, []error{ErrCallerUnknown, ErrNotPropertyOwner, ErrNotWinningBidder, ErrSelfEndorsement}},
	{KindInvalidInput, []error{ErrInvalidPrice, ErrInvalidID, ErrInvalidRequest, ErrInvalidNumber,
		ErrBidNotFound, ErrAccountNumberBlank, ErrReviewTextRequired}},
	{KindConflict, []error{ErrPropertyNotAvailable, ErrPropertyNotPending, ErrPropertyAlreadySold, ErrUpdateConflict}},
	{KindUnauthorized, []error{ErrUnauthenticated, ErrInvalidCredentials}},
}

// KindOf returns the class of err, walking wrapped errors
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	for _, k := range kinds {
		for _, target := range k.errs {
			if errors.Is(err, target) {
				return k.kind
			}
		}
	}
	return KindInternal
}
