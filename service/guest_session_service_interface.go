package service

import "context"

// GuestSessionStoreInterface defines the contract for one device's guest session slot
type GuestSessionStoreInterface interface {
	// GetOrCreate returns the stored guest session id, issuing or generating one when absent.
	// It only fails when the id cannot be persisted.
	GetOrCreate(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
	// Peek reads the stored id without creating one
	Peek(ctx context.Context) (string, bool, error)
}

// GuestSessionProviderInterface hands out the guest session store of a device
type GuestSessionProviderInterface interface {
	ForDevice(deviceID string) GuestSessionStoreInterface
}

// GuestSessionIssuer is the session-issuing side of the cart service
type GuestSessionIssuer interface {
	IssueGuestSession(ctx context.Context) (string, error)
}
