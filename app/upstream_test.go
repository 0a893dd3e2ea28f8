package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-gateway/config"
)

const testJWTSecret = "gateway-test-secret"

// fakeUpstream is an in-memory cart service speaking the wire format of the real one
type fakeUpstream struct {
	mu sync.Mutex

	catalog      map[string]map[string]any
	carts        map[string][]map[string]any
	calculations map[string]map[string]any
	sessions     int
	cleanups     []string
	authHeaders  map[string]string // cart id -> Authorization header of the last request
	server       *httptest.Server
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	u := &fakeUpstream{
		catalog:      make(map[string]map[string]any),
		carts:        make(map[string][]map[string]any),
		calculations: make(map[string]map[string]any),
		authHeaders:  make(map[string]string),
	}

	r := gin.New()
	r.GET("/cart/:id", u.getCart)
	r.POST("/cart/:id/add", u.addItem)
	r.POST("/cart/:id/remove", u.removeItem)
	r.POST("/guest-session", u.issueSession)
	r.POST("/guest-cart/:id/cleanup", u.cleanup)

	u.server = httptest.NewServer(r)
	t.Cleanup(u.server.Close)
	return u
}

// addProduct registers a catalog product. extra carries optional pricing fields
// such as shippingCharges or taxRate.
func (u *fakeUpstream) addProduct(id, name, category string, price float64, extra map[string]any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	product := map[string]any{"_id": id, "name": name, "price": price}
	if category != "" {
		product["category"] = category
	}
	for k, v := range extra {
		product[k] = v
	}
	u.catalog[id] = product
}

// putItem stores a raw line item; product may be nil to mimic a deleted product
func (u *fakeUpstream) putItem(cartID string, product map[string]any, quantity int, totalPrice float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var ref any
	if product != nil {
		ref = product
	}
	u.carts[cartID] = append(u.carts[cartID], map[string]any{
		"product":       ref,
		"quantity":      quantity,
		"size":          nil,
		"purchasePrice": totalPrice / float64(quantity),
		"totalPrice":    totalPrice,
	})
}

func (u *fakeUpstream) setCalculations(cartID string, calc map[string]any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calculations[cartID] = calc
}

func (u *fakeUpstream) issuedSessions() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sessions
}

func (u *fakeUpstream) cleanupCalls() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.cleanups...)
}

func (u *fakeUpstream) authFor(cartID string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.authHeaders[cartID]
}

func (u *fakeUpstream) cartBody(id string) gin.H {
	body := gin.H{"_id": id, "items": u.carts[id]}
	if body["items"] == nil {
		body["items"] = []any{}
	}
	if calc, ok := u.calculations[id]; ok {
		body["calculations"] = calc
	}
	return body
}

func (u *fakeUpstream) getCart(c *gin.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()
	id := c.Param("id")
	u.authHeaders[id] = c.GetHeader("Authorization")
	if _, ok := u.carts[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Cart not found"})
		return
	}
	c.JSON(http.StatusOK, u.cartBody(id))
}

func (u *fakeUpstream) addItem(c *gin.Context) {
	var req struct {
		Product  string  `json:"product"`
		Quantity int     `json:"quantity"`
		Size     *string `json:"size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	id := c.Param("id")
	u.authHeaders[id] = c.GetHeader("Authorization")
	product, ok := u.catalog[req.Product]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Product not found"})
		return
	}
	price := product["price"].(float64)
	u.carts[id] = append(u.carts[id], map[string]any{
		"product":       product,
		"quantity":      req.Quantity,
		"size":          req.Size,
		"purchasePrice": price,
		"totalPrice":    price * float64(req.Quantity),
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": u.cartBody(id)})
}

func (u *fakeUpstream) removeItem(c *gin.Context) {
	var req struct {
		Product string `json:"product"`
	}
	_ = c.ShouldBindJSON(&req)

	u.mu.Lock()
	defer u.mu.Unlock()
	id := c.Param("id")
	kept := u.carts[id][:0]
	for _, item := range u.carts[id] {
		if product, ok := item["product"].(map[string]any); ok && product["_id"] == req.Product {
			continue
		}
		kept = append(kept, item)
	}
	u.carts[id] = kept
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": u.cartBody(id)})
}

func (u *fakeUpstream) issueSession(c *gin.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sessions++
	c.JSON(http.StatusOK, gin.H{"sessionId": fmt.Sprintf("guest-%d", u.sessions)})
}

func (u *fakeUpstream) cleanup(c *gin.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()
	id := c.Param("id")
	u.cleanups = append(u.cleanups, id)
	kept := u.carts[id][:0]
	for _, item := range u.carts[id] {
		if item["product"] != nil {
			kept = append(kept, item)
		}
	}
	u.carts[id] = kept
	c.JSON(http.StatusOK, u.cartBody(id))
}

// newTestApp wires the whole gateway against upstream with in-memory storage and memo
func newTestApp(t *testing.T, upstream *fakeUpstream) *App {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.CartAPI.BaseURL = upstream.server.URL
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.HTTP.AllowedOrigins = []string{"*"}
	cfg.Database = config.DatabaseConfig{}
	cfg.Redis = config.RedisConfig{}
	cfg.Kafka.Brokers = nil

	a, err := Initialize(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func newUserToken(userID string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID}).SignedString([]byte(testJWTSecret))
}

func signUserToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := newUserToken(userID)
	require.NoError(t, err)
	return token
}

// call sends one request to the gateway as the given device, optionally signed in
func call(a *App, method, path, body, device, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if device != "" {
		req.Header.Set("X-Device-ID", device)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}
