package service

import (
	"context"
	"fmt"

	"storefront-gateway/models"
)

// CartIdentityResolver decides which cart a request addresses
type CartIdentityResolver struct {
	sessions GuestSessionProviderInterface
}

// NewCartIdentityResolver creates a new CartIdentityResolver
func NewCartIdentityResolver(sessions GuestSessionProviderInterface) *CartIdentityResolver {
	return &CartIdentityResolver{sessions: sessions}
}

// Resolve returns the user cart for an authenticated user and the device's guest cart otherwise.
// A guest session is never created for an authenticated user.
func (r *CartIdentityResolver) Resolve(ctx context.Context, deviceID string, user *models.User) (models.CartIdentifier, error) {
	if user.IsAuthenticated() {
		return models.UserCart(user.ID), nil
	}
	if deviceID == "" {
		return models.CartIdentifier{}, ErrMissingDevice
	}

	sessionID, err := r.sessions.ForDevice(deviceID).GetOrCreate(ctx)
	if err != nil {
		return models.CartIdentifier{}, fmt.Errorf("failed to resolve guest cart: %w", err)
	}
	id := models.GuestCart(sessionID)
	if !id.Valid() {
		return models.CartIdentifier{}, fmt.Errorf("%w: device %s has an empty guest session", ErrInvalidIdentity, deviceID)
	}
	return id, nil
}
