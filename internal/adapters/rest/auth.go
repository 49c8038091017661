package rest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"property-marketplace-service/internal/domain/shared"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const callerKey = "user_id"

// Claims carries the caller identity in the "id" claim
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for userID
func GenerateToken(secret string, userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken verifies the signature and expiry and returns the caller id
func ValidateToken(secret, tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, shared.ErrInvalidCredentials
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id claim is not a user id", shared.ErrInvalidCredentials)
	}
	return userID, nil
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller id on the context
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, shared.ErrUnauthenticated)
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, fmt.Errorf("%w: expected a bearer token", shared.ErrUnauthenticated))
			return
		}

		userID, err := ValidateToken(secret, parts[1])
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(callerKey, userID)
		c.Next()
	}
}

// callerID returns the identity set by AuthMiddleware
func callerID(c *gin.Context) (uuid.UUID, error) {
	value, exists := c.Get(callerKey)
	if !exists {
		return uuid.Nil, shared.ErrUnauthenticated
	}
	userID, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("caller id has unexpected type")
	}
	return userID, nil
}
