package service

import (
	"context"

	"storefront-gateway/models"
)

// CartRequest identifies who is asking: the device (the "tab") and, when signed in, the user
type CartRequest struct {
	DeviceID string
	User     *models.User
}

// token returns the bearer token to forward, if any
func (r CartRequest) token() string {
	if r.User == nil {
		return ""
	}
	return r.User.Token
}

// ViewOptions tunes a cart read
type ViewOptions struct {
	// Fresh bypasses the summary memo and refreshes it
	Fresh bool
}

// CartViewLoader loads the assembled cart view of a request
type CartViewLoader interface {
	View(ctx context.Context, req CartRequest, opts ViewOptions) (*models.CartView, error)
}

// CartServiceInterface defines the contract for cart reads and writes
type CartServiceInterface interface {
	CartViewLoader
	AddItem(ctx context.Context, req CartRequest, item *models.AddItemRequest) (*models.CartView, error)
	RemoveItem(ctx context.Context, req CartRequest, item *models.RemoveItemRequest) (*models.CartView, error)
	// ItemCount returns the badge count: total quantity over valid items
	ItemCount(ctx context.Context, req CartRequest, opts ViewOptions) (int, error)
}

// BroadcasterProvider hands out the broadcaster of a device
type BroadcasterProvider interface {
	ForDevice(deviceID string) CartBroadcasterInterface
}

// SessionServiceInterface defines the contract for login/logout hooks
type SessionServiceInterface interface {
	Login(ctx context.Context, deviceID string, user *models.User) error
	Logout(ctx context.Context, deviceID string) error
	Current(ctx context.Context, deviceID string, user *models.User) (models.SessionInfo, error)
}
