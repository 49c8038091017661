package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"property-marketplace-service/internal/domain/shared"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Number accepts either a JSON number or a string holding one
type Number struct {
	Value float64
	Set   bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", shared.ErrInvalidNumber, s)
		}
		n.Value, n.Set = v, true
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrInvalidNumber, data)
	}
	n.Value, n.Set = v, true
	return nil
}

type createListingBody struct {
	Type          string `json:"type"`
	Location      string `json:"location"`
	Purpose       string `json:"purpose"`
	Description   string `json:"description"`
	Image         string `json:"image"`
	Phone         string `json:"phone"`
	Size          Number `json:"size"`
	Price         Number `json:"price"`
	PreviousPrice Number `json:"previousPrice"`
	VATRate       Number `json:"vatRate"`
}

type placeBidBody struct {
	Price Number `json:"price"`
}

type acceptBidBody struct {
	BidUserID string `json:"bidUserId"`
	BidPrice  Number `json:"bidPrice"`
}

type purchaseBody struct {
	AccountNumber string `json:"accountNumber"`
}

type updateProfileBody struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type reviewBody struct {
	ReviewText string `json:"reviewText"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// statusFor maps an error class to its HTTP status
func statusFor(kind shared.Kind) int {
	switch kind {
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindForbidden:
		return http.StatusForbidden
	case shared.KindInvalidInput:
		return http.StatusBadRequest
	case shared.KindConflict:
		return http.StatusConflict
	case shared.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	kind := shared.KindOf(err)
	message := err.Error()
	if kind == shared.KindInternal {
		// store details stay in the logs
		_ = c.Error(err)
		message = "internal server error"
	}

	c.AbortWithStatusJSON(statusFor(kind), Response{
		Success: false,
		Error:   kind.String(),
		Message: message,
	})
}
