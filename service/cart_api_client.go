package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"storefront-gateway/metrics"
	"storefront-gateway/models"
)

// Cart service operations, also used as metric labels
const (
	opGetCart      = "get_cart"
	opAddItem      = "add_item"
	opRemoveItem   = "remove_item"
	opCleanup      = "guest_cleanup"
	opIssueSession = "issue_guest_session"
)

// CartAPIConfig configures the cart service client
type CartAPIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// CartAPIClient talks to the external cart service over REST
type CartAPIClient struct {
	client  *resty.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewCartAPIClient creates a new CartAPIClient
func NewCartAPIClient(cfg CartAPIConfig, logger *zap.Logger, m *metrics.Metrics) *CartAPIClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("X-API-KEY", cfg.APIKey)
	}
	return &CartAPIClient{client: client, logger: logger, metrics: m}
}

// Ensure CartAPIClient implements CartAPIClientInterface
var _ CartAPIClientInterface = (*CartAPIClient)(nil)

func (c *CartAPIClient) request(ctx context.Context, id models.CartIdentifier, token string) *resty.Request {
	req := c.client.R().SetContext(ctx).SetPathParam("id", id.Key())
	// Guest carts are addressed by session id alone.
	if !id.IsGuest && token != "" {
		req.SetAuthToken(token)
	}
	return req
}

func (c *CartAPIClient) observe(op, outcome string, started time.Time) {
	c.metrics.UpstreamRequests.WithLabelValues(op, outcome).Inc()
	c.metrics.UpstreamDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// GetCart fetches GET /cart/{id}. A 404 is an empty cart.
func (c *CartAPIClient) GetCart(ctx context.Context, id models.CartIdentifier, token string) (*models.RawCart, error) {
	started := time.Now()
	resp, err := c.request(ctx, id, token).Get("/cart/{id}")
	if err != nil {
		c.observe(opGetCart, metrics.OutcomeError, started)
		return nil, fmt.Errorf("%w: get cart: %v", ErrCartServiceUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		c.observe(opGetCart, metrics.OutcomeSuccess, started)
		return &models.RawCart{Items: []models.CartLineItem{}}, nil
	case resp.IsError():
		c.observe(opGetCart, metrics.OutcomeError, started)
		return nil, fmt.Errorf("%w: get cart returned status %d", ErrCartServiceUnavailable, resp.StatusCode())
	}

	cart, err := decodeCart(resp.Body())
	if err != nil {
		c.observe(opGetCart, metrics.OutcomeError, started)
		return nil, fmt.Errorf("get cart %s: %w", id.MemoKey(), err)
	}
	c.observe(opGetCart, metrics.OutcomeSuccess, started)
	return cart, nil
}

// AddItem posts to /cart/{id}/add
func (c *CartAPIClient) AddItem(ctx context.Context, id models.CartIdentifier, token string, req *models.AddItemRequest) (*models.RawCart, error) {
	started := time.Now()
	resp, err := c.request(ctx, id, token).SetBody(req).Post("/cart/{id}/add")
	return c.mutation(opAddItem, "add", resp, err, started)
}

// RemoveItem posts to /cart/{id}/remove
func (c *CartAPIClient) RemoveItem(ctx context.Context, id models.CartIdentifier, token string, req *models.RemoveItemRequest) (*models.RawCart, error) {
	started := time.Now()
	resp, err := c.request(ctx, id, token).SetBody(req).Post("/cart/{id}/remove")
	return c.mutation(opRemoveItem, "remove", resp, err, started)
}

// mutation classifies the answer to an add/remove:
// transport errors and 5xx are unavailability, 4xx and {success:false} are rejections.
func (c *CartAPIClient) mutation(op, verb string, resp *resty.Response, err error, started time.Time) (*models.RawCart, error) {
	if err != nil {
		c.observe(op, metrics.OutcomeError, started)
		return nil, fmt.Errorf("%w: %s item: %v", ErrCartServiceUnavailable, verb, err)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		c.observe(op, metrics.OutcomeError, started)
		return nil, fmt.Errorf("%w: %s item returned status %d", ErrCartServiceUnavailable, verb, resp.StatusCode())
	}

	parsed, decodeErr := decodeCartResponse(resp.Body())
	if resp.IsError() || (parsed != nil && parsed.rejected()) {
		c.observe(op, metrics.OutcomeRejected, started)
		rejected := &CartRejectedError{Operation: verb, StatusCode: resp.StatusCode()}
		if parsed != nil {
			rejected.Message = parsed.Message
		}
		return nil, rejected
	}
	if decodeErr != nil {
		c.observe(op, metrics.OutcomeError, started)
		return nil, fmt.Errorf("%s item: %w", verb, decodeErr)
	}

	cart := parsed.cart()
	if err := validateCart(cart); err != nil {
		c.observe(op, metrics.OutcomeError, started)
		return nil, fmt.Errorf("%s item: %w", verb, err)
	}
	c.observe(op, metrics.OutcomeSuccess, started)
	return cart, nil
}

// CleanupGuestCart posts to /guest-cart/{sessionId}/cleanup
func (c *CartAPIClient) CleanupGuestCart(ctx context.Context, sessionID string) (*models.RawCart, error) {
	started := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("sessionId", sessionID).
		Post("/guest-cart/{sessionId}/cleanup")
	if err != nil {
		c.observe(opCleanup, metrics.OutcomeError, started)
		return nil, fmt.Errorf("%w: guest cleanup: %v", ErrCartServiceUnavailable, err)
	}
	if resp.IsError() {
		c.observe(opCleanup, metrics.OutcomeError, started)
		return nil, fmt.Errorf("%w: guest cleanup returned status %d", ErrCartServiceUnavailable, resp.StatusCode())
	}

	cart, err := decodeCart(resp.Body())
	if err != nil {
		c.observe(opCleanup, metrics.OutcomeError, started)
		return nil, fmt.Errorf("guest cleanup: %w", err)
	}
	c.observe(opCleanup, metrics.OutcomeSuccess, started)
	return cart, nil
}

// IssueGuestSession asks the cart service for a fresh guest session id
func (c *CartAPIClient) IssueGuestSession(ctx context.Context) (string, error) {
	started := time.Now()
	resp, err := c.client.R().SetContext(ctx).Post("/guest-session")
	if err != nil {
		c.observe(opIssueSession, metrics.OutcomeError, started)
		return "", fmt.Errorf("%w: issue guest session: %v", ErrCartServiceUnavailable, err)
	}
	if resp.IsError() {
		c.observe(opIssueSession, metrics.OutcomeError, started)
		return "", fmt.Errorf("%w: issue guest session returned status %d", ErrCartServiceUnavailable, resp.StatusCode())
	}

	sessionID := decodeGuestSession(resp.Body())
	if sessionID == "" {
		c.observe(opIssueSession, metrics.OutcomeError, started)
		return "", errors.New("issue guest session: empty session id")
	}
	c.observe(opIssueSession, metrics.OutcomeSuccess, started)
	c.logger.Debug("🎫 Issued guest session", zap.String("session_id", sessionID))
	return sessionID, nil
}
