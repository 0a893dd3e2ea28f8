package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-gateway/models"
)

func TestResolve_AuthenticatedUser(t *testing.T) {
	h := newHarness()

	id, err := h.resolver.Resolve(context.Background(), "dev-1", &models.User{ID: "user-7"})

	require.NoError(t, err)
	assert.Equal(t, models.CartIdentifier{UserID: "user-7"}, id)
	assert.True(t, id.Valid())
	_, _, issued, _ := h.api.counts()
	assert.Equal(t, 0, issued, "no guest session for a signed-in user")
}

func TestResolve_Guest(t *testing.T) {
	h := newHarness()

	id, err := h.resolver.Resolve(context.Background(), "dev-1", nil)

	require.NoError(t, err)
	assert.True(t, id.IsGuest)
	assert.Equal(t, "issued-session", id.SessionID)
	assert.Empty(t, id.UserID)
	assert.True(t, id.Valid())
}

func TestResolve_UserWithoutIDIsGuest(t *testing.T) {
	h := newHarness()

	id, err := h.resolver.Resolve(context.Background(), "dev-1", &models.User{Email: "a@b.c"})

	require.NoError(t, err)
	assert.True(t, id.IsGuest)
}

func TestResolve_GuestNeedsDevice(t *testing.T) {
	h := newHarness()

	_, err := h.resolver.Resolve(context.Background(), "", nil)

	assert.ErrorIs(t, err, ErrMissingDevice)
}

func TestResolve_SwitchesToUserAfterLogin(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	req := CartRequest{DeviceID: "dev-1"}

	_, err := h.carts.AddItem(ctx, req, &models.AddItemRequest{Product: "p1", Quantity: 1})
	require.NoError(t, err)
	guest, err := h.resolver.Resolve(ctx, "dev-1", nil)
	require.NoError(t, err)
	require.True(t, guest.IsGuest)

	user := &models.User{ID: "user-7"}
	require.NoError(t, h.login.Login(ctx, "dev-1", user))

	_, stored, err := h.sessions.ForDevice("dev-1").Peek(ctx)
	require.NoError(t, err)
	assert.False(t, stored, "login clears the guest session")

	next, err := h.resolver.Resolve(ctx, "dev-1", user)
	require.NoError(t, err)
	assert.Equal(t, models.UserCart("user-7"), next)
}

// blankSessions hands out stores whose stored session id is empty
type blankSessions struct{}

func (blankSessions) ForDevice(string) GuestSessionStoreInterface { return blankStore{} }

type blankStore struct{}

func (blankStore) GetOrCreate(context.Context) (string, error) { return "", nil }
func (blankStore) Clear(context.Context) error                 { return nil }
func (blankStore) Peek(context.Context) (string, bool, error)  { return "", false, nil }

func TestResolve_RejectsEmptyGuestSession(t *testing.T) {
	resolver := NewCartIdentityResolver(blankSessions{})

	id, err := resolver.Resolve(context.Background(), "dev-1", nil)

	assert.ErrorIs(t, err, ErrInvalidIdentity)
	assert.Equal(t, models.CartIdentifier{}, id)
}
