package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-gateway/cache"
	"storefront-gateway/metrics"
	"storefront-gateway/models"
	"storefront-gateway/pricing"
	"storefront-gateway/repository"
)

// fakeCartAPI is an in-memory cart service
type fakeCartAPI struct {
	mu sync.Mutex

	carts       map[string]*models.RawCart
	getErr      error
	addErr      error
	removeErr   error
	cleanupErr  error
	issueErr    error
	issuedID    string
	getCalls    int
	addCalls    int
	removeCalls int
	issueCalls  int
	cleanups    []string
	tokens      []string
	addRequests []models.AddItemRequest
}

func newFakeCartAPI() *fakeCartAPI {
	return &fakeCartAPI{carts: make(map[string]*models.RawCart), issuedID: "issued-session"}
}

func (f *fakeCartAPI) setCart(id models.CartIdentifier, cart *models.RawCart) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[id.Key()] = cart
}

func (f *fakeCartAPI) GetCart(_ context.Context, id models.CartIdentifier, token string) (*models.RawCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	f.tokens = append(f.tokens, token)
	if f.getErr != nil {
		return nil, f.getErr
	}
	if cart, ok := f.carts[id.Key()]; ok {
		copied := *cart
		copied.Items = append([]models.CartLineItem(nil), cart.Items...)
		return &copied, nil
	}
	return &models.RawCart{Items: []models.CartLineItem{}}, nil
}

func (f *fakeCartAPI) AddItem(_ context.Context, id models.CartIdentifier, _ string, req *models.AddItemRequest) (*models.RawCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.addRequests = append(f.addRequests, *req)
	cart, ok := f.carts[id.Key()]
	if !ok {
		cart = &models.RawCart{}
		f.carts[id.Key()] = cart
	}
	cart.Items = append(cart.Items, lineItem(req.Product, "Product "+req.Product, "", int64(100*req.Quantity), req.Quantity))
	return cart, nil
}

func (f *fakeCartAPI) RemoveItem(_ context.Context, id models.CartIdentifier, _ string, req *models.RemoveItemRequest) (*models.RawCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls++
	if f.removeErr != nil {
		return nil, f.removeErr
	}
	cart, ok := f.carts[id.Key()]
	if !ok {
		return &models.RawCart{}, nil
	}
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID() != req.Product {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	return cart, nil
}

func (f *fakeCartAPI) CleanupGuestCart(_ context.Context, sessionID string) (*models.RawCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups = append(f.cleanups, sessionID)
	if f.cleanupErr != nil {
		return nil, f.cleanupErr
	}
	cart, ok := f.carts[sessionID]
	if !ok {
		return &models.RawCart{}, nil
	}
	cart.Items = pricing.ValidItems(cart.Items)
	return cart, nil
}

func (f *fakeCartAPI) IssueGuestSession(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issueCalls++
	if f.issueErr != nil {
		return "", f.issueErr
	}
	return f.issuedID, nil
}

func (f *fakeCartAPI) counts() (get, add, issue int, cleanups []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, f.addCalls, f.issueCalls, append([]string(nil), f.cleanups...)
}

// fakePublisher records published activity
type fakePublisher struct {
	mu     sync.Mutex
	events []models.ActivityEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event models.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []models.ActivityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ActivityEvent(nil), p.events...)
}

// failingStorage fails every write
type failingStorage struct {
	repository.DeviceStorageRepositoryInterface
	err error
}

func (s failingStorage) Set(context.Context, string, string, string) error { return s.err }

func lineItem(id, name, category string, total int64, quantity int) models.CartLineItem {
	return models.CartLineItem{
		Product:       &models.ProductRef{ID: id, Name: name, Category: category},
		Quantity:      quantity,
		PurchasePrice: decimal.NewFromInt(total),
		TotalPrice:    decimal.NewFromInt(total),
	}
}

// testHarness wires the service layer around fakes
type testHarness struct {
	api       *fakeCartAPI
	storage   *repository.MemoryStorageRepository
	sessions  *GuestSessionFactory
	resolver  *CartIdentityResolver
	hub       *BroadcasterHub
	publisher *fakePublisher
	metrics   *metrics.Metrics
	carts     *CartService
	login     *SessionService
}

func newHarness() *testHarness {
	return newHarnessWithMemo(cache.NewLocalMemo(64, 5*time.Second))
}

func newHarnessWithMemo(memo cache.ViewMemo) *testHarness {
	logger := zap.NewNop()
	m := metrics.New()
	api := newFakeCartAPI()
	storage := repository.NewMemoryStorageRepository()
	sessions := NewGuestSessionFactory(storage, api, logger, m)
	resolver := NewCartIdentityResolver(sessions)
	hub := NewBroadcasterHub()
	publisher := &fakePublisher{}

	return &testHarness{
		api:       api,
		storage:   storage,
		sessions:  sessions,
		resolver:  resolver,
		hub:       hub,
		publisher: publisher,
		metrics:   m,
		carts: NewCartService(api, resolver, pricing.NewEngine(pricing.DefaultPolicy()), memo, hub, publisher, logger, m,
			CartServiceConfig{CurrencySymbol: "₹"}),
		login: NewSessionService(sessions, hub, publisher, logger, m),
	}
}
