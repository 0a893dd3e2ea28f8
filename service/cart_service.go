package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storefront-gateway/cache"
	"storefront-gateway/messaging"
	"storefront-gateway/metrics"
	"storefront-gateway/models"
	"storefront-gateway/pricing"
	"storefront-gateway/utils"
)

// CartServiceConfig holds the tunables of CartService
type CartServiceConfig struct {
	CurrencySymbol string
	CleanupTimeout time.Duration
}

// CartService runs resolve → fetch → validate → partition → summarize, and the cart writes
type CartService struct {
	api          CartAPIClientInterface
	resolver     *CartIdentityResolver
	engine       *pricing.Engine
	memo         cache.ViewMemo
	broadcasters BroadcasterProvider
	publisher    messaging.ActivityPublisher
	logger       *zap.Logger
	metrics      *metrics.Metrics
	cfg          CartServiceConfig
	now          func() time.Time
}

// NewCartService creates a new CartService
func NewCartService(
	api CartAPIClientInterface,
	resolver *CartIdentityResolver,
	engine *pricing.Engine,
	memo cache.ViewMemo,
	broadcasters BroadcasterProvider,
	publisher messaging.ActivityPublisher,
	logger *zap.Logger,
	m *metrics.Metrics,
	cfg CartServiceConfig,
) *CartService {
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = 3 * time.Second
	}
	return &CartService{
		api:          api,
		resolver:     resolver,
		engine:       engine,
		memo:         memo,
		broadcasters: broadcasters,
		publisher:    publisher,
		logger:       logger,
		metrics:      m,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Ensure CartService implements CartServiceInterface
var _ CartServiceInterface = (*CartService)(nil)

// View returns the assembled cart of the request, served from the memo unless opts.Fresh is set
func (s *CartService) View(ctx context.Context, req CartRequest, opts ViewOptions) (*models.CartView, error) {
	id, err := s.resolver.Resolve(ctx, req.DeviceID, req.User)
	if err != nil {
		return nil, err
	}

	if !opts.Fresh {
		if view, ok := s.memo.Get(ctx, id.MemoKey()); ok {
			s.metrics.MemoLookups.WithLabelValues("hit").Inc()
			return view, nil
		}
		s.metrics.MemoLookups.WithLabelValues("miss").Inc()
	}

	raw, err := s.api.GetCart(ctx, id, req.token())
	if err != nil {
		s.logger.Error("❌ Failed to fetch cart", zap.String("cart", id.MemoKey()), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	view := s.assemble(ctx, id, raw)
	s.memo.Set(ctx, id.MemoKey(), view)
	return view, nil
}

// AddItem adds a product to the cart. Nothing is changed locally before the cart service accepts it.
func (s *CartService) AddItem(ctx context.Context, req CartRequest, item *models.AddItemRequest) (*models.CartView, error) {
	if item == nil || item.Product == "" || item.Quantity < 1 {
		return nil, ErrInvalidItem
	}

	id, err := s.resolver.Resolve(ctx, req.DeviceID, req.User)
	if err != nil {
		return nil, err
	}

	echoed, err := s.api.AddItem(ctx, id, req.token(), item)
	if err != nil {
		s.logWriteFailure("add", id, item.Product, err)
		return nil, err
	}

	s.logger.Info("🛒 Item added to cart",
		zap.String("cart", id.MemoKey()), zap.String("product", item.Product), zap.Int("quantity", item.Quantity))
	s.afterWrite(ctx, req, id, models.ActivityItemAdded, item.Product, item.Quantity)
	return s.refreshAfterWrite(ctx, req, id, echoed), nil
}

// RemoveItem removes a product (optionally a single size of it) from the cart
func (s *CartService) RemoveItem(ctx context.Context, req CartRequest, item *models.RemoveItemRequest) (*models.CartView, error) {
	if item == nil || item.Product == "" {
		return nil, ErrInvalidItem
	}

	id, err := s.resolver.Resolve(ctx, req.DeviceID, req.User)
	if err != nil {
		return nil, err
	}

	echoed, err := s.api.RemoveItem(ctx, id, req.token(), item)
	if err != nil {
		s.logWriteFailure("remove", id, item.Product, err)
		return nil, err
	}

	s.logger.Info("🗑️ Item removed from cart", zap.String("cart", id.MemoKey()), zap.String("product", item.Product))
	s.afterWrite(ctx, req, id, models.ActivityItemRemoved, item.Product, 0)
	return s.refreshAfterWrite(ctx, req, id, echoed), nil
}

// ItemCount returns the badge count
func (s *CartService) ItemCount(ctx context.Context, req CartRequest, opts ViewOptions) (int, error) {
	view, err := s.View(ctx, req, opts)
	if err != nil {
		return 0, err
	}
	return view.ItemCount(), nil
}

func (s *CartService) logWriteFailure(verb string, id models.CartIdentifier, product string, err error) {
	if rejected, ok := IsCartRejected(err); ok {
		s.logger.Warn("⚠️ Cart service rejected "+verb,
			zap.String("cart", id.MemoKey()), zap.String("product", product), zap.String("message", rejected.Message))
		return
	}
	s.logger.Error("❌ Cart "+verb+" failed",
		zap.String("cart", id.MemoKey()), zap.String("product", product), zap.Error(err))
}

// afterWrite tells the device's subscribers to refetch and records the activity
func (s *CartService) afterWrite(ctx context.Context, req CartRequest, id models.CartIdentifier, eventType, product string, quantity int) {
	s.broadcasters.ForDevice(req.DeviceID).Notify(EventCartUpdated)
	publishActivity(ctx, s.publisher, s.metrics, s.logger, models.ActivityEvent{
		Type:      eventType,
		CartKey:   id.MemoKey(),
		IsGuest:   id.IsGuest,
		DeviceID:  req.DeviceID,
		ProductID: product,
		Quantity:  quantity,
		Timestamp: s.now().UTC(),
	})
}

// refreshAfterWrite reads the cart back once the write has completed.
// If that read fails the cart echoed by the write is used instead.
func (s *CartService) refreshAfterWrite(ctx context.Context, req CartRequest, id models.CartIdentifier, echoed *models.RawCart) *models.CartView {
	view, err := s.View(ctx, req, ViewOptions{Fresh: true})
	if err == nil {
		return view
	}
	s.logger.Warn("⚠️ Refresh after write failed, using echoed cart", zap.String("cart", id.MemoKey()), zap.Error(err))
	return s.assemble(ctx, id, echoed)
}

// assemble validates a fetched cart and computes both partitions' totals
func (s *CartService) assemble(ctx context.Context, id models.CartIdentifier, raw *models.RawCart) *models.CartView {
	if raw == nil {
		raw = &models.RawCart{}
	}

	valid := FilterValid(raw)
	invalid := len(raw.Items) - len(valid)
	if invalid > 0 {
		s.metrics.InvalidItemsFiltered.Add(float64(invalid))
		s.logger.Warn("⚠️ Dropped cart items with unresolved products",
			zap.String("cart", id.MemoKey()), zap.Int("invalid", invalid), zap.Int("valid", len(valid)))
		if id.IsGuest {
			s.cleanupGuestCart(ctx, id.SessionID)
		}
	}

	regular, wholesale := pricing.Partition(valid)
	regularSummary := s.engine.Summarize(regular)
	wholesaleSummary := s.engine.SummarizeWholesale(wholesale, raw.Calculations)

	symbol := s.cfg.CurrencySymbol
	return &models.CartView{
		Identity:         id,
		Items:            regular,
		WholesaleItems:   wholesale,
		InvalidItemCount: invalid,
		Regular:          regularSummary,
		Wholesale:        wholesaleSummary,
		Display: models.DisplayTotals{
			Subtotal:       utils.FormatAmount(regularSummary.Subtotal, symbol),
			Shipping:       utils.FormatAmount(regularSummary.Shipping, symbol),
			Tax:            utils.FormatAmount(regularSummary.Tax, symbol),
			Total:          utils.FormatAmount(regularSummary.Total, symbol),
			WholesaleTotal: utils.FormatAmount(wholesaleSummary.Calculations.Total, symbol),
		},
		Empty: len(valid) == 0,
	}
}

// cleanupGuestCart asks the cart service to drop dangling items. Failures are logged and ignored.
func (s *CartService) cleanupGuestCart(ctx context.Context, sessionID string) {
	cleanupCtx, cancel := context.WithTimeout(ctx, s.cfg.CleanupTimeout)
	defer cancel()

	if _, err := s.api.CleanupGuestCart(cleanupCtx, sessionID); err != nil {
		s.metrics.GuestCleanups.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Warn("⚠️ Guest cart cleanup failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	s.metrics.GuestCleanups.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("🧹 Guest cart cleaned up", zap.String("session_id", sessionID))
}

// publishActivity hands an event to the publisher; failures never reach the caller
func publishActivity(ctx context.Context, publisher messaging.ActivityPublisher, m *metrics.Metrics, logger *zap.Logger, event models.ActivityEvent) {
	if err := publisher.Publish(ctx, event); err != nil {
		m.ActivityEvents.WithLabelValues(event.Type, metrics.OutcomeError).Inc()
		logger.Warn("⚠️ Activity event dropped", zap.String("type", event.Type), zap.Error(err))
		return
	}
	m.ActivityEvents.WithLabelValues(event.Type, metrics.OutcomeSuccess).Inc()
}
