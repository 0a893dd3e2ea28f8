package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"storefront-gateway/models"
)

// CartViewSink receives every refreshed view (or the error of a failed refresh)
type CartViewSink func(view *models.CartView, err error)

// LiveCartView is a mounted consumer of cart data: it refetches on every cartUpdated
// event of its device and pushes the result to its sink.
// Results that arrive after Unmount are discarded.
type LiveCartView struct {
	loader      CartViewLoader
	broadcaster CartBroadcasterInterface
	sink        CartViewSink
	logger      *zap.Logger

	mu          sync.Mutex
	req         CartRequest
	mounted     bool
	unsubscribe func()

	pending chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

// NewLiveCartView creates an unmounted view
func NewLiveCartView(loader CartViewLoader, broadcaster CartBroadcasterInterface, req CartRequest, sink CartViewSink, logger *zap.Logger) *LiveCartView {
	return &LiveCartView{
		loader:      loader,
		broadcaster: broadcaster,
		sink:        sink,
		logger:      logger,
		req:         req,
		pending:     make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Mount subscribes to the device broadcaster and starts the refresh loop.
// The first load may be served from the memo; every later one is fresh.
func (v *LiveCartView) Mount(ctx context.Context) {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = true
	v.unsubscribe = v.broadcaster.Subscribe(func(CartEvent) {
		// Coalesce bursts; one pending refresh is enough.
		select {
		case v.pending <- struct{}{}:
		default:
		}
	})
	v.mu.Unlock()

	go v.loop(ctx)
}

func (v *LiveCartView) loop(ctx context.Context) {
	defer close(v.done)

	v.Refresh(ctx, ViewOptions{})
	for {
		select {
		case <-v.stop:
			return
		case <-ctx.Done():
			return
		case <-v.pending:
			v.Refresh(ctx, ViewOptions{Fresh: true})
		}
	}
}

// Refresh runs the fetch-and-summarize pipeline and delivers the result if the view
// is still mounted when the fetch resolves. It reports whether the result was delivered.
func (v *LiveCartView) Refresh(ctx context.Context, opts ViewOptions) bool {
	v.mu.Lock()
	req := v.req
	v.mu.Unlock()

	view, err := v.loader.View(ctx, req, opts)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		v.logger.Debug("🔇 Discarding cart refresh for unmounted view", zap.String("device_id", req.DeviceID))
		return false
	}
	v.sink(view, err)
	return true
}

// SetUser switches the identity used by later refreshes, for example after a login
// on an already mounted view
func (v *LiveCartView) SetUser(user *models.User) {
	v.mu.Lock()
	v.req.User = user
	v.mu.Unlock()
}

// Mounted reports whether the view is mounted
func (v *LiveCartView) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// Unmount unsubscribes and stops the refresh loop. In-flight results are dropped.
func (v *LiveCartView) Unmount() {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = false
	unsubscribe := v.unsubscribe
	v.mu.Unlock()

	unsubscribe()
	close(v.stop)
}

// Done is closed once the refresh loop has exited
func (v *LiveCartView) Done() <-chan struct{} {
	return v.done
}
