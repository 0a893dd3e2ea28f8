package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront-gateway/messaging"
	"storefront-gateway/metrics"
	"storefront-gateway/models"
)

// SessionService runs the login and logout hooks of a device
type SessionService struct {
	sessions     GuestSessionProviderInterface
	broadcasters BroadcasterProvider
	publisher    messaging.ActivityPublisher
	logger       *zap.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(
	sessions GuestSessionProviderInterface,
	broadcasters BroadcasterProvider,
	publisher messaging.ActivityPublisher,
	logger *zap.Logger,
	m *metrics.Metrics,
) *SessionService {
	return &SessionService{
		sessions:     sessions,
		broadcasters: broadcasters,
		publisher:    publisher,
		logger:       logger,
		metrics:      m,
		now:          time.Now,
	}
}

// Ensure SessionService implements SessionServiceInterface
var _ SessionServiceInterface = (*SessionService)(nil)

// Login drops the device's guest session, so the next resolve addresses the user cart,
// and tells mounted views to refetch. The guest cart is not merged into the user cart.
func (s *SessionService) Login(ctx context.Context, deviceID string, user *models.User) error {
	if !user.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if deviceID == "" {
		return ErrMissingDevice
	}

	if err := s.sessions.ForDevice(deviceID).Clear(ctx); err != nil {
		s.logger.Error("❌ Login: failed to clear guest session", zap.String("device_id", deviceID), zap.Error(err))
		return err
	}

	s.broadcasters.ForDevice(deviceID).Notify(EventCartUpdated)
	publishActivity(ctx, s.publisher, s.metrics, s.logger, models.ActivityEvent{
		Type:      models.ActivitySessionLogin,
		CartKey:   models.UserCart(user.ID).MemoKey(),
		DeviceID:  deviceID,
		Timestamp: s.now().UTC(),
	})

	s.logger.Info("🔑 User logged in on device", zap.String("device_id", deviceID), zap.String("user_id", user.ID))
	return nil
}

// Logout tells mounted views to refetch; the next resolve creates or reuses a guest session
func (s *SessionService) Logout(_ context.Context, deviceID string) error {
	if deviceID == "" {
		return ErrMissingDevice
	}
	s.broadcasters.ForDevice(deviceID).Notify(EventCartUpdated)
	s.logger.Info("👋 User logged out on device", zap.String("device_id", deviceID))
	return nil
}

// Current describes the identity the device's next cart call would use, without creating a session
func (s *SessionService) Current(ctx context.Context, deviceID string, user *models.User) (models.SessionInfo, error) {
	if user.IsAuthenticated() {
		return models.SessionInfo{UserID: user.ID, HasSession: true}, nil
	}
	if deviceID == "" {
		return models.SessionInfo{IsGuest: true}, nil
	}

	sessionID, ok, err := s.sessions.ForDevice(deviceID).Peek(ctx)
	if err != nil {
		return models.SessionInfo{}, err
	}
	return models.SessionInfo{SessionID: sessionID, IsGuest: true, HasSession: ok}, nil
}
