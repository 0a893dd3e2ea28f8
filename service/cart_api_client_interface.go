package service

import (
	"context"

	"storefront-gateway/models"
)

// CartAPIClientInterface defines the contract for calls to the external cart service
type CartAPIClientInterface interface {
	GetCart(ctx context.Context, id models.CartIdentifier, token string) (*models.RawCart, error)
	// AddItem and RemoveItem return *CartRejectedError when the service answers {success:false}
	AddItem(ctx context.Context, id models.CartIdentifier, token string, req *models.AddItemRequest) (*models.RawCart, error)
	RemoveItem(ctx context.Context, id models.CartIdentifier, token string, req *models.RemoveItemRequest) (*models.RawCart, error)
	CleanupGuestCart(ctx context.Context, sessionID string) (*models.RawCart, error)
	IssueGuestSession(ctx context.Context) (string, error)
}
