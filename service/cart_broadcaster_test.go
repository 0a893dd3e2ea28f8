package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartBroadcaster_DeliversInSubscriptionOrder(t *testing.T) {
	b := NewCartBroadcaster()
	var order []string

	b.Subscribe(func(CartEvent) { order = append(order, "badge") })
	b.Subscribe(func(CartEvent) { order = append(order, "page") })

	b.Notify(EventCartUpdated)

	assert.Equal(t, []string{"badge", "page"}, order)
}

func TestCartBroadcaster_UnsubscribeIsIdempotent(t *testing.T) {
	b := NewCartBroadcaster()
	calls := 0
	unsubscribe := b.Subscribe(func(CartEvent) { calls++ })
	other := 0
	b.Subscribe(func(CartEvent) { other++ })

	unsubscribe()
	unsubscribe()
	b.Notify(EventCartUpdated)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, other)
	assert.Equal(t, 1, b.Len())
}

func TestCartBroadcaster_HandlerMayUnsubscribeDuringDelivery(t *testing.T) {
	b := NewCartBroadcaster()
	var selfCalls, laterCalls int
	var unsubscribeSelf, unsubscribeLater func()

	unsubscribeSelf = b.Subscribe(func(CartEvent) {
		selfCalls++
		unsubscribeSelf()
		unsubscribeLater()
	})
	unsubscribeLater = b.Subscribe(func(CartEvent) { laterCalls++ })

	b.Notify(EventCartUpdated)
	b.Notify(EventCartUpdated)

	assert.Equal(t, 1, selfCalls)
	assert.Equal(t, 0, laterCalls, "unsubscribed before its turn")
	assert.Equal(t, 0, b.Len())
}

func TestCartBroadcaster_EventName(t *testing.T) {
	b := NewCartBroadcaster()
	var got CartEvent
	b.Subscribe(func(e CartEvent) { got = e })

	b.Notify(EventCartUpdated)

	assert.Equal(t, CartEvent("cartUpdated"), got)
}

func TestBroadcasterHub_DevicesAreIsolated(t *testing.T) {
	hub := NewBroadcasterHub()
	var a, b int
	hub.ForDevice("dev-a").Subscribe(func(CartEvent) { a++ })
	hub.ForDevice("dev-b").Subscribe(func(CartEvent) { b++ })

	hub.ForDevice("dev-a").Notify(EventCartUpdated)

	assert.Equal(t, 1, a)
	assert.Equal(t, 0, b)
}

func TestBroadcasterHub_PrunesDevicesWithoutSubscribers(t *testing.T) {
	hub := NewBroadcasterHub()
	first := hub.ForDevice("dev-a").Subscribe(func(CartEvent) {})
	second := hub.ForDevice("dev-a").Subscribe(func(CartEvent) {})
	assert.Equal(t, 1, hub.Devices())

	first()
	assert.Equal(t, 1, hub.Devices())
	second()
	second()
	assert.Equal(t, 0, hub.Devices())

	// Notifying a device nobody listens to is a no-op.
	hub.ForDevice("dev-a").Notify(EventCartUpdated)
	assert.Equal(t, 0, hub.Devices())
}

func TestBroadcasterHub_SelfUnsubscribeDoesNotDeadlock(t *testing.T) {
	hub := NewBroadcasterHub()
	calls := 0
	var unsubscribe func()
	unsubscribe = hub.ForDevice("dev-a").Subscribe(func(CartEvent) {
		calls++
		unsubscribe()
	})

	hub.ForDevice("dev-a").Notify(EventCartUpdated)
	hub.ForDevice("dev-a").Notify(EventCartUpdated)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, hub.Devices())
}
