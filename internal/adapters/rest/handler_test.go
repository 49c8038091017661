package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"property-marketplace-service/internal/adapters/memory"
	"property-marketplace-service/internal/app"
	"property-marketplace-service/internal/config"
	"property-marketplace-service/internal/domain/shared"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type propertyView struct {
	ID            uuid.UUID  `json:"id"`
	OwnerID       uuid.UUID  `json:"ownerId"`
	Status        string     `json:"status"`
	PriceWithVAT  string     `json:"priceWithVat"`
	PriceChange   string     `json:"priceChange"`
	WinningBidder *uuid.UUID `json:"winningBidder"`
	BuyerID       *uuid.UUID `json:"buyerId"`
	Bids          []struct {
		UserID   uuid.UUID `json:"userId"`
		UserName string    `json:"userName"`
		Price    float64   `json:"price"`
	} `json:"bids"`
}

type testAPI struct {
	t      *testing.T
	router http.Handler
	users  *memory.UserRepository
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewStore(&memory.StoreParams{Logger: zerolog.Nop()})
	properties, users := store.Properties(), store.Users()
	logger := zerolog.Nop()

	server := NewServer(ServerParams{
		Config: &config.Config{Server: config.ServerConfig{Port: "0", JWTSecret: testSecret}},
		PropertyService: app.NewPropertyService(app.PropertyServiceParams{
			PropertyRepo: properties, UserRepo: users, Logger: logger,
		}),
		BidService: app.NewBidService(app.BidServiceParams{
			PropertyRepo: properties, UserRepo: users, Logger: logger,
		}),
		PurchaseService: app.NewPurchaseService(app.PurchaseServiceParams{
			PropertyRepo: properties, UserRepo: users, ReconcileDelay: time.Minute, Logger: logger,
		}),
		ShortlistService: app.NewShortlistService(app.ShortlistServiceParams{
			PropertyRepo: properties, UserRepo: users, Logger: logger,
		}),
		ProfileService: app.NewProfileService(app.ProfileServiceParams{
			PropertyRepo: properties, UserRepo: users, Logger: logger,
		}),
		Logger: logger,
	})

	return &testAPI{t: t, router: server.Router(), users: users}
}

func (api *testAPI) user(name string) (uuid.UUID, string) {
	api.t.Helper()
	id := uuid.New()
	require.NoError(api.t, api.users.Create(context.Background(), &shared.User{ID: id, Name: name, CreatedAt: time.Now()}))
	token, err := GenerateToken(testSecret, id, time.Hour)
	require.NoError(api.t, err)
	return id, token
}

func (api *testAPI) do(method, path, token string, body interface{}) (int, apiResponse) {
	api.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(api.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(api.t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func (api *testAPI) createListing(token string, price interface{}) propertyView {
	api.t.Helper()
	code, resp := api.do(http.MethodPost, "/api/properties", token, map[string]interface{}{
		"type":          "Villa",
		"location":      "New Cairo",
		"purpose":       "sale",
		"price":         price,
		"previousPrice": 1200,
		"vatRate":       14,
	})
	require.Equal(api.t, http.StatusCreated, code, resp.Message)
	return decodeProperty(api.t, resp)
}

func decodeProperty(t *testing.T, resp apiResponse) propertyView {
	t.Helper()
	var p propertyView
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	return p
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestAuthGate(t *testing.T) {
	api := newTestAPI(t)

	code, resp := api.do(http.MethodPost, "/api/properties", "", map[string]interface{}{"price": 1})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "unauthorized", resp.Error)

	code, _ = api.do(http.MethodGet, "/api/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	wrongKey, err := GenerateToken("other-secret", uuid.New(), time.Hour)
	require.NoError(t, err)
	code, _ = api.do(http.MethodGet, "/api/profile", wrongKey, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	expired, err := GenerateToken(testSecret, uuid.New(), -time.Minute)
	require.NoError(t, err)
	code, _ = api.do(http.MethodGet, "/api/profile", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: uuid.NewString()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	code, _ = api.do(http.MethodGet, "/api/profile", unsigned, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	// listing query is public
	code, resp = api.do(http.MethodGet, "/api/properties", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
}

func TestUnknownCallerIsForbidden(t *testing.T) {
	api := newTestAPI(t)
	token, err := GenerateToken(testSecret, uuid.New(), time.Hour)
	require.NoError(t, err)

	code, resp := api.do(http.MethodPost, "/api/properties", token, map[string]interface{}{"price": 10})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", resp.Error)
}

func TestPurchaseFlow(t *testing.T) {
	api := newTestAPI(t)
	sellerID, sellerToken := api.user("Seller")
	buyerID, buyerToken := api.user("Buyer")
	_, otherToken := api.user("Other")

	listing := api.createListing(sellerToken, "1000")
	assert.Equal(t, sellerID, listing.OwnerID)
	assert.Equal(t, "available", listing.Status)
	assert.Equal(t, "1140.00", listing.PriceWithVAT)
	assert.Equal(t, "200.00 (Decrement)", listing.PriceChange)

	base := "/api/properties/" + listing.ID.String()

	code, resp := api.do(http.MethodPost, base+"/bid", buyerToken, map[string]interface{}{"price": 950})
	require.Equal(t, http.StatusOK, code, resp.Message)
	withBid := decodeProperty(t, resp)
	require.Len(t, withBid.Bids, 1)
	assert.Equal(t, "Buyer", withBid.Bids[0].UserName)

	code, resp = api.do(http.MethodPost, base+"/accept-bid", buyerToken, map[string]interface{}{
		"bidUserId": buyerID.String(), "bidPrice": 950,
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", resp.Error)

	code, resp = api.do(http.MethodPost, base+"/accept-bid", sellerToken, map[string]interface{}{
		"bidUserId": buyerID.String(), "bidPrice": 951,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = api.do(http.MethodPost, base+"/accept-bid", sellerToken, map[string]interface{}{
		"bidUserId": buyerID.String(), "bidPrice": "950",
	})
	require.Equal(t, http.StatusOK, code, resp.Message)
	pending := decodeProperty(t, resp)
	assert.Equal(t, "pending", pending.Status)
	require.NotNil(t, pending.WinningBidder)
	assert.Equal(t, buyerID, *pending.WinningBidder)

	purchasePath := "/api/purchase/" + listing.ID.String()

	code, _ = api.do(http.MethodPost, purchasePath, buyerToken, map[string]interface{}{"accountNumber": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = api.do(http.MethodPost, purchasePath, otherToken, map[string]interface{}{"accountNumber": "ACC-1"})
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = api.do(http.MethodPost, purchasePath, buyerToken, map[string]interface{}{"accountNumber": "ACC-1"})
	require.Equal(t, http.StatusOK, code, resp.Message)
	sold := decodeProperty(t, resp)
	assert.Equal(t, "sold", sold.Status)
	require.NotNil(t, sold.BuyerID)
	assert.Equal(t, buyerID, *sold.BuyerID)
	assert.NotContains(t, string(resp.Data), "ACC-1")

	code, resp = api.do(http.MethodPost, purchasePath, buyerToken, map[string]interface{}{"accountNumber": "ACC-1"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Property already purchased by you", resp.Message)

	code, resp = api.do(http.MethodPost, purchasePath, otherToken, map[string]interface{}{"accountNumber": "ACC-2"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", resp.Error)

	code, resp = api.do(http.MethodPost, base+"/bid", otherToken, map[string]interface{}{"price": 2000})
	assert.Equal(t, http.StatusConflict, code)

	code, resp = api.do(http.MethodGet, "/api/profile", buyerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), listing.ID.String())
}

func TestInvalidInput(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.user("Seller")
	listing := api.createListing(token, 500)

	code, resp := api.do(http.MethodPost, "/api/properties/"+listing.ID.String()+"/bid", token, map[string]interface{}{"price": "abc"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_input", resp.Error)

	code, _ = api.do(http.MethodPost, "/api/properties/"+listing.ID.String()+"/bid", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(http.MethodPost, "/api/properties/"+listing.ID.String()+"/bid", token, map[string]interface{}{"price": "NaN"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(http.MethodGet, "/api/properties/not-an-id", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(http.MethodPost, "/api/properties/"+listing.ID.String()+"/accept-bid", token, map[string]interface{}{"bidUserId": "x", "bidPrice": 1})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestNotFound(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.user("Someone")

	code, resp := api.do(http.MethodGet, "/api/properties/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", resp.Error)

	code, _ = api.do(http.MethodPost, "/api/properties/"+uuid.NewString()+"/bid", token, map[string]interface{}{"price": 1})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(http.MethodGet, "/api/seller/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListingQuery(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.user("Seller")
	api.createListing(token, 100)

	code, resp := api.do(http.MethodGet, "/api/properties?location=cairo&type=VILLA", "", nil)
	require.Equal(t, http.StatusOK, code)
	var listed []propertyView
	require.NoError(t, json.Unmarshal(resp.Data, &listed))
	assert.Len(t, listed, 1)

	code, resp = api.do(http.MethodGet, "/api/properties?location=alexandria", "", nil)
	require.Equal(t, http.StatusOK, code)
	listed = nil
	if len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, &listed))
	}
	assert.Empty(t, listed)
}

func TestShortlistEndpoints(t *testing.T) {
	api := newTestAPI(t)
	_, sellerToken := api.user("Seller")
	_, buyerToken := api.user("Buyer")
	listing := api.createListing(sellerToken, 300)

	code, resp := api.do(http.MethodPost, "/api/shortlist/"+listing.ID.String(), buyerToken, nil)
	require.Equal(t, http.StatusOK, code, resp.Message)

	code, resp = api.do(http.MethodGet, "/api/shortlist", buyerToken, nil)
	require.Equal(t, http.StatusOK, code)
	var listed []propertyView
	require.NoError(t, json.Unmarshal(resp.Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, listing.ID, listed[0].ID)
}

func TestSellerEndpoints(t *testing.T) {
	api := newTestAPI(t)
	sellerID, sellerToken := api.user("Seller")
	_, buyerToken := api.user("Buyer")
	sellerPath := "/api/seller/" + sellerID.String()

	code, resp := api.do(http.MethodPost, sellerPath+"/review", sellerToken, map[string]interface{}{"reviewText": "great"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodPost, sellerPath+"/review", buyerToken, map[string]interface{}{"reviewText": "  "})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = api.do(http.MethodPost, sellerPath+"/review", buyerToken, map[string]interface{}{"reviewText": "smooth sale"})
	require.Equal(t, http.StatusOK, code, resp.Message)

	code, _ = api.do(http.MethodPost, sellerPath+"/trust", buyerToken, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodPost, sellerPath+"/trust", buyerToken, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodPost, sellerPath+"/golden-badge", buyerToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, resp = api.do(http.MethodGet, sellerPath, buyerToken, nil)
	require.Equal(t, http.StatusOK, code)
	var seller shared.SellerProfile
	require.NoError(t, json.Unmarshal(resp.Data, &seller))
	assert.Equal(t, 1, seller.TrustCount)
	assert.Equal(t, 1, seller.GoldenBadgeCount)
	require.Len(t, seller.Reviews, 1)
	assert.Equal(t, "smooth sale", seller.Reviews[0].Text)

	code, resp = api.do(http.MethodPatch, "/api/profile", sellerToken, map[string]interface{}{"name": "Renamed", "phone": "123"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), "Renamed")
}
