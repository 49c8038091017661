package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/inbound"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler serves the marketplace HTTP API
type Handler struct {
	propertyService  inbound.PropertyService
	bidService       inbound.BidService
	purchaseService  inbound.PurchaseService
	shortlistService inbound.ShortlistService
	profileService   inbound.ProfileService
	logger           zerolog.Logger
}

type HandlerParams struct {
	PropertyService  inbound.PropertyService
	BidService       inbound.BidService
	PurchaseService  inbound.PurchaseService
	ShortlistService inbound.ShortlistService
	ProfileService   inbound.ProfileService
	Logger           zerolog.Logger
}

func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		propertyService:  params.PropertyService,
		bidService:       params.BidService,
		purchaseService:  params.PurchaseService,
		shortlistService: params.ShortlistService,
		profileService:   params.ProfileService,
		logger:           params.Logger.With().Str("component", "rest_handler").Logger(),
	}
}

// RegisterRoutes mounts the API under /api. Everything except the listing
// query sits behind the bearer token gate.
func (handler *Handler) RegisterRoutes(router gin.IRouter, jwtSecret string) {
	api := router.Group("/api")
	api.GET("/properties", handler.listProperties)

	authed := api.Group("")
	authed.Use(AuthMiddleware(jwtSecret))

	authed.POST("/properties", handler.createListing)
	authed.GET("/properties/:id", handler.getProperty)
	authed.POST("/properties/:id/bid", handler.placeBid)
	authed.POST("/properties/:id/accept-bid", handler.acceptBid)

	authed.POST("/purchase/:propertyId", handler.purchase)

	authed.POST("/shortlist/:propertyId", handler.addToShortlist)
	authed.GET("/shortlist", handler.listShortlist)

	authed.GET("/profile", handler.getProfile)
	authed.PATCH("/profile", handler.updateProfile)

	authed.GET("/seller/:id", handler.getSeller)
	authed.POST("/seller/:id/review", handler.addReview)
	authed.POST("/seller/:id/trust", handler.trustSeller)
	authed.POST("/seller/:id/golden-badge", handler.giveGoldenBadge)
}

func (handler *Handler) listProperties(c *gin.Context) {
	properties, err := handler.propertyService.ListProperties(c.Request.Context(), inbound.ListPropertiesRequest{
		Type:     c.Query("type"),
		Location: c.Query("location"),
		Purpose:  c.Query("purpose"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, fmt.Sprintf("%d properties found", len(properties)), properties)
}

func (handler *Handler) createListing(c *gin.Context) {
	caller, err := callerID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var body createListingBody
	if err := bindJSON(c, &body); err != nil {
		abortWithError(c, err)
		return
	}
	if !body.Price.Set {
		abortWithError(c, fmt.Errorf("%w: price is required", shared.ErrInvalidRequest))
		return
	}

	created, err := handler.propertyService.CreateListing(c.Request.Context(), inbound.CreateListingRequest{
		OwnerID:       caller,
		Type:          body.Type,
		Location:      body.Location,
		Purpose:       body.Purpose,
		Description:   body.Description,
		Image:         body.Image,
		Phone:         body.Phone,
		Size:          body.Size.Value,
		Price:         body.Price.Value,
		PreviousPrice: body.PreviousPrice.Value,
		VATRate:       body.VATRate.Value,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Property listed successfully", created)
}

func (handler *Handler) getProperty(c *gin.Context) {
	propertyID, err := pathID(c, "id")
	if err != nil {
		abortWithError(c, err)
		return
	}

	p, err := handler.propertyService.GetProperty(c.Request.Context(), propertyID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Property retrieved", p)
}

func (handler *Handler) placeBid(c *gin.Context) {
	caller, propertyID, ok := handler.callerAndPath(c, "id")
	if !ok {
		return
	}

	var body placeBidBody
	if err := bindJSON(c, &body); err != nil {
		abortWithError(c, err)
		return
	}
	if !body.Price.Set {
		abortWithError(c, fmt.Errorf("%w: price is required", shared.ErrInvalidRequest))
		return
	}

	p, err := handler.bidService.PlaceBid(c.Request.Context(), inbound.PlaceBidRequest{
		PropertyID: propertyID,
		UserID:     caller,
		Price:      body.Price.Value,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Bid placed successfully", p)
}

func (handler *Handler) acceptBid(c *gin.Context) {
	caller, propertyID, ok := handler.callerAndPath(c, "id")
	if !ok {
		return
	}

	var body acceptBidBody
	if err := bindJSON(c, &body); err != nil {
		abortWithError(c, err)
		return
	}
	bidUserID, err := uuid.Parse(body.BidUserID)
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: bidUserId", shared.ErrInvalidID))
		return
	}
	if !body.BidPrice.Set {
		abortWithError(c, fmt.Errorf("%w: bidPrice is required", shared.ErrInvalidRequest))
		return
	}

	p, err := handler.bidService.AcceptBid(c.Request.Context(), inbound.AcceptBidRequest{
		PropertyID: propertyID,
		CallerID:   caller,
		BidUserID:  bidUserID,
		BidPrice:   body.BidPrice.Value,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Bid accepted, property is pending payment", p)
}

func (handler *Handler) purchase(c *gin.Context) {
	caller, propertyID, ok := handler.callerAndPath(c, "propertyId")
	if !ok {
		return
	}

	var body purchaseBody
	if err := bindJSON(c, &body); err != nil {
		abortWithError(c, err)
		return
	}

	result, err := handler.purchaseService.Purchase(c.Request.Context(), inbound.PurchaseRequest{
		PropertyID:    propertyID,
		BuyerID:       caller,
		AccountNumber: body.AccountNumber,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	message := "Property purchased successfully"
	if result.Resumed {
		message = "Property already purchased by you"
	}
	respond(c, http.StatusOK, message, result.Property)
}

func (handler *Handler) addToShortlist(c *gin.Context) {
	caller, propertyID, ok := handler.callerAndPath(c, "propertyId")
	if !ok {
		return
	}

	if err := handler.shortlistService.Add(c.Request.Context(), caller, propertyID); err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Property added to shortlist", nil)
}

func (handler *Handler) listShortlist(c *gin.Context) {
	caller, err := callerID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	properties, err := handler.shortlistService.List(c.Request.Context(), caller)
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Shortlist retrieved", properties)
}

func (handler *Handler) getProfile(c *gin.Context) {
	caller, err := callerID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	profile, err := handler.profileService.GetProfile(c.Request.Context(), caller)
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Profile retrieved", profile)
}

func (handler *Handler) updateProfile(c *gin.Context) {
	caller, err := callerID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var body updateProfileBody
	if err := bindJSON(c, &body); err != nil {
		abortWithError(c, err)
		return
	}

	user, err := handler.profileService.UpdateProfile(c.Request.Context(), inbound.UpdateProfileRequest{
		UserID: caller,
		Name:   body.Name,
		Phone:  body.Phone,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Profile updated", user)
}

func (handler *Handler) getSeller(c *gin.Context) {
	sellerID, err := pathID(c, "id")
	if err != nil {
		abortWithError(c, err)
		return
	}

	seller, err := handler.profileService.GetSeller(c.Request.Context(), sellerID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Seller retrieved", seller)
}

func (handler *Handler) addReview(c *gin.Context) {
	caller, sellerID, ok := handler.callerAndPath(c, "id")
	if !ok {
		return
	}

	var body reviewBody
	if err := bindJSON(c, &body); err != nil {
		abortWithError(c, err)
		return
	}

	seller, err := handler.profileService.AddReview(c.Request.Context(), inbound.AddReviewRequest{
		ReviewerID: caller,
		SellerID:   sellerID,
		Text:       body.ReviewText,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Review added", seller)
}

func (handler *Handler) trustSeller(c *gin.Context) {
	caller, sellerID, ok := handler.callerAndPath(c, "id")
	if !ok {
		return
	}

	seller, err := handler.profileService.Trust(c.Request.Context(), caller, sellerID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Seller trusted", seller)
}

func (handler *Handler) giveGoldenBadge(c *gin.Context) {
	caller, sellerID, ok := handler.callerAndPath(c, "id")
	if !ok {
		return
	}

	seller, err := handler.profileService.GiveGoldenBadge(c.Request.Context(), caller, sellerID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Golden badge given", seller)
}

// callerAndPath resolves the caller and a path id, writing the error
// response itself when either is missing
func (handler *Handler) callerAndPath(c *gin.Context, param string) (uuid.UUID, uuid.UUID, bool) {
	caller, err := callerID(c)
	if err != nil {
		abortWithError(c, err)
		return uuid.Nil, uuid.Nil, false
	}

	id, err := pathID(c, param)
	if err != nil {
		abortWithError(c, err)
		return uuid.Nil, uuid.Nil, false
	}

	return caller, id, true
}

func pathID(c *gin.Context, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", shared.ErrInvalidID, param)
	}
	return id, nil
}

// bindJSON decodes the body into dst. An empty body leaves dst zeroed.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, shared.ErrInvalidNumber) {
			return err
		}
		return fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err)
	}
	return nil
}
