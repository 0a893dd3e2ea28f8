package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-gateway/models"
)

type recordingLoader struct {
	mu      sync.Mutex
	release chan struct{}
	opts    []ViewOptions
	users   []*models.User
}

func (l *recordingLoader) View(_ context.Context, req CartRequest, opts ViewOptions) (*models.CartView, error) {
	l.mu.Lock()
	l.opts = append(l.opts, opts)
	l.users = append(l.users, req.User)
	release := l.release
	l.mu.Unlock()
	if release != nil {
		<-release
	}
	return &models.CartView{Identity: models.GuestCart("sess-1")}, nil
}

func (l *recordingLoader) recorded() ([]ViewOptions, []*models.User) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ViewOptions(nil), l.opts...), append([]*models.User(nil), l.users...)
}

func receiveView(t *testing.T, ch <-chan *models.CartView) *models.CartView {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no view delivered")
		return nil
	}
}

func TestLiveCartView_RefetchesFreshOnNotify(t *testing.T) {
	ctx := context.Background()
	loader := &recordingLoader{}
	broadcaster := NewCartBroadcaster()
	delivered := make(chan *models.CartView, 4)
	view := NewLiveCartView(loader, broadcaster, CartRequest{DeviceID: "dev-1"},
		func(v *models.CartView, err error) { delivered <- v }, zap.NewNop())

	view.Mount(ctx)
	receiveView(t, delivered)
	broadcaster.Notify(EventCartUpdated)
	receiveView(t, delivered)
	view.Unmount()
	<-view.Done()

	opts, _ := loader.recorded()
	require.Len(t, opts, 2)
	assert.False(t, opts[0].Fresh, "first load may use the memo")
	assert.True(t, opts[1].Fresh)
	assert.Equal(t, 0, broadcaster.Len())
}

func TestLiveCartView_DiscardsResultAfterUnmount(t *testing.T) {
	ctx := context.Background()
	loader := &recordingLoader{release: make(chan struct{})}
	var mu sync.Mutex
	deliveries := 0
	view := NewLiveCartView(loader, NewCartBroadcaster(), CartRequest{DeviceID: "dev-1"},
		func(*models.CartView, error) {
			mu.Lock()
			deliveries++
			mu.Unlock()
		}, zap.NewNop())

	view.Mount(ctx)
	require.Eventually(t, func() bool {
		opts, _ := loader.recorded()
		return len(opts) == 1
	}, time.Second, 5*time.Millisecond)

	view.Unmount()
	close(loader.release)
	<-view.Done()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, deliveries)
	assert.False(t, view.Mounted())
}

func TestLiveCartView_RefreshWhenUnmounted(t *testing.T) {
	view := NewLiveCartView(&recordingLoader{}, NewCartBroadcaster(), CartRequest{DeviceID: "dev-1"},
		func(*models.CartView, error) { t.Fatal("sink called on unmounted view") }, zap.NewNop())

	assert.False(t, view.Refresh(context.Background(), ViewOptions{Fresh: true}))
}

func TestLiveCartView_UnmountIsIdempotent(t *testing.T) {
	view := NewLiveCartView(&recordingLoader{}, NewCartBroadcaster(), CartRequest{DeviceID: "dev-1"},
		func(*models.CartView, error) {}, zap.NewNop())

	view.Mount(context.Background())
	view.Unmount()
	view.Unmount()
	<-view.Done()
}

func TestLiveCartView_SetUser(t *testing.T) {
	ctx := context.Background()
	loader := &recordingLoader{}
	broadcaster := NewCartBroadcaster()
	delivered := make(chan *models.CartView, 4)
	view := NewLiveCartView(loader, broadcaster, CartRequest{DeviceID: "dev-1"},
		func(v *models.CartView, err error) { delivered <- v }, zap.NewNop())

	view.Mount(ctx)
	receiveView(t, delivered)
	user := &models.User{ID: "user-7"}
	view.SetUser(user)
	broadcaster.Notify(EventCartUpdated)
	receiveView(t, delivered)
	view.Unmount()

	_, users := loader.recorded()
	require.Len(t, users, 2)
	assert.Nil(t, users[0])
	assert.Equal(t, user, users[1])
}
