package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront-gateway/metrics"
	"storefront-gateway/repository"
)

// GuestSessionKey is the storage key holding a device's guest session id
const GuestSessionKey = "guestSessionId"

// GuestSessionStore persists the guest session id of one device
type GuestSessionStore struct {
	storage  repository.Storage
	issuer   GuestSessionIssuer
	logger   *zap.Logger
	metrics  *metrics.Metrics
	group    *singleflight.Group
	deviceID string
	newID    func() string
}

// Ensure GuestSessionStore implements GuestSessionStoreInterface
var _ GuestSessionStoreInterface = (*GuestSessionStore)(nil)

// GetOrCreate returns the stored id. When none is stored it asks the issuer exactly once;
// on failure it falls back to a locally generated uuid. Concurrent callers for the same
// device share one issuance.
func (s *GuestSessionStore) GetOrCreate(ctx context.Context) (string, error) {
	if id, ok, err := s.Peek(ctx); err != nil || ok {
		return id, err
	}

	// Other callers may be waiting on this flight; one caller's cancellation must not fail them.
	v, err, _ := s.group.Do(s.deviceID, func() (any, error) {
		return s.create(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *GuestSessionStore) create(ctx context.Context) (string, error) {
	// A flight that finished after our first read has already stored an id.
	if id, ok, err := s.Peek(ctx); err != nil || ok {
		return id, err
	}

	id, err := s.issuer.IssueGuestSession(ctx)
	if err != nil || id == "" {
		id = s.newID()
		s.metrics.GuestSessionFallbacks.Inc()
		s.logger.Warn("⚠️ Guest session issuance failed, using local id",
			zap.String("device_id", s.deviceID),
			zap.String("session_id", id),
			zap.Error(err))
	}

	if err := s.storage.Set(ctx, GuestSessionKey, id); err != nil {
		return "", fmt.Errorf("failed to persist guest session: %w", err)
	}

	s.logger.Info("🎫 Guest session created", zap.String("device_id", s.deviceID), zap.String("session_id", id))
	return id, nil
}

// Clear deletes the stored id
func (s *GuestSessionStore) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, GuestSessionKey); err != nil {
		return fmt.Errorf("failed to clear guest session: %w", err)
	}
	s.logger.Info("🧹 Guest session cleared", zap.String("device_id", s.deviceID))
	return nil
}

// Peek returns the stored id, if any
func (s *GuestSessionStore) Peek(ctx context.Context) (string, bool, error) {
	id, ok, err := s.storage.Get(ctx, GuestSessionKey)
	if err != nil {
		return "", false, fmt.Errorf("failed to read guest session: %w", err)
	}
	return id, ok && id != "", nil
}

// GuestSessionFactory builds GuestSessionStores bound to a device
type GuestSessionFactory struct {
	repo    repository.DeviceStorageRepositoryInterface
	issuer  GuestSessionIssuer
	logger  *zap.Logger
	metrics *metrics.Metrics
	group   *singleflight.Group
	newID   func() string
}

// NewGuestSessionFactory creates a new GuestSessionFactory
func NewGuestSessionFactory(repo repository.DeviceStorageRepositoryInterface, issuer GuestSessionIssuer, logger *zap.Logger, m *metrics.Metrics) *GuestSessionFactory {
	return &GuestSessionFactory{
		repo:    repo,
		issuer:  issuer,
		logger:  logger,
		metrics: m,
		group:   new(singleflight.Group),
		newID:   uuid.NewString,
	}
}

// Ensure GuestSessionFactory implements GuestSessionProviderInterface
var _ GuestSessionProviderInterface = (*GuestSessionFactory)(nil)

// ForDevice returns the guest session store of deviceID
func (f *GuestSessionFactory) ForDevice(deviceID string) GuestSessionStoreInterface {
	return &GuestSessionStore{
		storage:  repository.ForDevice(f.repo, deviceID),
		issuer:   f.issuer,
		logger:   f.logger,
		metrics:  f.metrics,
		group:    f.group,
		deviceID: deviceID,
		newID:    f.newID,
	}
}
