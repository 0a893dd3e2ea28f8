package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"storefront-gateway/models"
)

const userKey = "storefront.user"

// ErrAuthDisabled is returned by TokenParser when no signing secret is configured
var ErrAuthDisabled = errors.New("token verification disabled")

// TokenParser verifies HMAC-signed bearer tokens issued by the storefront's auth service
type TokenParser struct {
	secret []byte
	issuer string
}

// NewTokenParser creates a new TokenParser
func NewTokenParser(secret, issuer string) *TokenParser {
	return &TokenParser{secret: []byte(secret), issuer: issuer}
}

// Parse verifies tokenString (with or without the "Bearer " prefix) and returns its user
func (p *TokenParser) Parse(tokenString string) (*models.User, error) {
	if len(p.secret) == 0 {
		return nil, ErrAuthDisabled
	}
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenString), "Bearer "))
	if raw == "" {
		return nil, errors.New("empty token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	user := &models.User{Token: raw}
	user.ID = stringClaim(claims, "user_id")
	if user.ID == "" {
		user.ID, _ = claims.GetSubject()
	}
	if user.ID == "" {
		return nil, errors.New("token carries no user id")
	}
	user.Email = stringClaim(claims, "email")
	user.Role = stringClaim(claims, "role")
	return user, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	switch v := claims[name].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

// OptionalAuth attaches the user of a valid bearer token. Requests without a token stay
// anonymous (guest carts); a token that fails verification is rejected.
func OptionalAuth(parser *TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		user, err := parser.Parse(header)
		if errors.Is(err, ErrAuthDisabled) {
			c.Next()
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentUser(c).IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for guests
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
