package service

import (
	"sync"
	"sync/atomic"
)

// CartEvent is the event name delivered to subscribers. It carries no payload:
// subscribers refetch instead of applying a diff.
type CartEvent string

// EventCartUpdated is published after every successful cart write or identity change
const EventCartUpdated CartEvent = "cartUpdated"

// CartEventHandler receives cart events
type CartEventHandler func(event CartEvent)

// CartBroadcasterInterface is an in-process publish/subscribe channel for cart changes
type CartBroadcasterInterface interface {
	Notify(event CartEvent)
	// Subscribe registers handler and returns its idempotent unsubscribe function
	Subscribe(handler CartEventHandler) (unsubscribe func())
}

type subscription struct {
	id      uint64
	handler CartEventHandler
	active  atomic.Bool
}

// CartBroadcaster delivers events to its subscribers synchronously, in subscription order.
// A handler may unsubscribe itself, or others, while being delivered to.
type CartBroadcaster struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []*subscription
}

// NewCartBroadcaster creates an empty broadcaster
func NewCartBroadcaster() *CartBroadcaster {
	return &CartBroadcaster{}
}

// Ensure CartBroadcaster implements CartBroadcasterInterface
var _ CartBroadcasterInterface = (*CartBroadcaster)(nil)

// Notify runs every active handler in the caller's goroutine
func (b *CartBroadcaster) Notify(event CartEvent) {
	b.mu.RLock()
	snapshot := make([]*subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.RUnlock()

	for _, sub := range snapshot {
		// Unsubscribed mid-delivery.
		if !sub.active.Load() {
			continue
		}
		sub.handler(event)
	}
}

// Subscribe registers handler
func (b *CartBroadcaster) Subscribe(handler CartEventHandler) func() {
	b.mu.Lock()
	b.nextID++
	sub := &subscription{id: b.nextID, handler: handler}
	sub.active.Store(true)
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(sub) })
	}
}

func (b *CartBroadcaster) remove(sub *subscription) {
	sub.active.Store(false)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == sub.id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of live subscriptions
func (b *CartBroadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// BroadcasterHub holds one broadcaster per device. Broadcasters never cross devices.
type BroadcasterHub struct {
	mu      sync.Mutex
	devices map[string]*CartBroadcaster
}

// NewBroadcasterHub creates an empty hub
func NewBroadcasterHub() *BroadcasterHub {
	return &BroadcasterHub{devices: make(map[string]*CartBroadcaster)}
}

// ForDevice returns the broadcaster of deviceID
func (h *BroadcasterHub) ForDevice(deviceID string) CartBroadcasterInterface {
	return &deviceBroadcaster{hub: h, deviceID: deviceID}
}

// Devices returns how many devices currently have subscribers
func (h *BroadcasterHub) Devices() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.devices)
}

func (h *BroadcasterHub) subscribe(deviceID string, handler CartEventHandler) func() {
	h.mu.Lock()
	b, ok := h.devices[deviceID]
	if !ok {
		b = NewCartBroadcaster()
		h.devices[deviceID] = b
	}
	unsubscribe := b.Subscribe(handler)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			unsubscribe()
			// Drop the device once nobody listens.
			if b.Len() == 0 && h.devices[deviceID] == b {
				delete(h.devices, deviceID)
			}
		})
	}
}

func (h *BroadcasterHub) notify(deviceID string, event CartEvent) {
	h.mu.Lock()
	b, ok := h.devices[deviceID]
	h.mu.Unlock()
	if ok {
		b.Notify(event)
	}
}

// deviceBroadcaster routes a device's events through the hub
type deviceBroadcaster struct {
	hub      *BroadcasterHub
	deviceID string
}

func (d *deviceBroadcaster) Notify(event CartEvent) {
	d.hub.notify(d.deviceID, event)
}

func (d *deviceBroadcaster) Subscribe(handler CartEventHandler) func() {
	return d.hub.subscribe(d.deviceID, handler)
}
