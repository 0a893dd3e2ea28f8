// Package cache memoizes assembled cart views for a short window
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront-gateway/models"
)

// ViewMemo is a short-lived memo of cart views keyed by cart identifier.
// It is never invalidated on writes; entries simply age out.
type ViewMemo interface {
	Get(ctx context.Context, key string) (*models.CartView, bool)
	Set(ctx context.Context, key string, view *models.CartView)
}

// LocalMemo keeps views in an in-process expirable LRU
type LocalMemo struct {
	entries *lru.LRU[string, *models.CartView]
}

// NewLocalMemo creates a LocalMemo holding at most size views for ttl
func NewLocalMemo(size int, ttl time.Duration) *LocalMemo {
	return &LocalMemo{entries: lru.NewLRU[string, *models.CartView](size, nil, ttl)}
}

func (m *LocalMemo) Get(_ context.Context, key string) (*models.CartView, bool) {
	return m.entries.Get(key)
}

func (m *LocalMemo) Set(_ context.Context, key string, view *models.CartView) {
	m.entries.Add(key, view)
}

// RedisMemo shares views between gateway replicas
type RedisMemo struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisMemo creates a RedisMemo
func NewRedisMemo(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisMemo {
	return &RedisMemo{
		client: client,
		ttl:    ttl,
		prefix: "storefront:cart_view:",
		logger: logger,
	}
}

// Get treats every Redis failure as a miss
func (m *RedisMemo) Get(ctx context.Context, key string) (*models.CartView, bool) {
	data, err := m.client.Get(ctx, m.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		m.logger.Warn("⚠️ Cart view memo read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var view models.CartView
	if err := json.Unmarshal(data, &view); err != nil {
		m.logger.Warn("⚠️ Cart view memo entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &view, true
}

func (m *RedisMemo) Set(ctx context.Context, key string, view *models.CartView) {
	data, err := json.Marshal(view)
	if err != nil {
		m.logger.Warn("⚠️ Cart view memo encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := m.client.Set(ctx, m.prefix+key, data, m.ttl).Err(); err != nil {
		m.logger.Warn("⚠️ Cart view memo write failed", zap.String("key", key), zap.Error(err))
	}
}

// NoopMemo never remembers anything
type NoopMemo struct{}

func (NoopMemo) Get(context.Context, string) (*models.CartView, bool) { return nil, false }
func (NoopMemo) Set(context.Context, string, *models.CartView)        {}
