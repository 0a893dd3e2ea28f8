package models

import "time"

// Activity event types
const (
	ActivityItemAdded    = "cart.item.added"
	ActivityItemRemoved  = "cart.item.removed"
	ActivitySessionLogin = "session.login"
)

// ActivityEvent records a successful cart mutation or session change
type ActivityEvent struct {
	Type      string    `json:"type"`
	CartKey   string    `json:"cartKey"`
	IsGuest   bool      `json:"isGuest"`
	DeviceID  string    `json:"deviceId"`
	ProductID string    `json:"productId,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
