package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"storefront-gateway/models"
)

// payloadValidator checks decoded carts before any math runs on them
var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// cartResponse covers every shape the cart service answers with:
// a bare cart, a {"cart": ...} envelope, or {"success": false, "message": ...}.
type cartResponse struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Cart    *models.RawCart `json:"cart,omitempty"`
	models.RawCart
}

func (r *cartResponse) rejected() bool {
	return r.Success != nil && !*r.Success
}

func (r *cartResponse) cart() *models.RawCart {
	if r.Cart != nil {
		return r.Cart
	}
	cart := r.RawCart
	return &cart
}

// decodeCartResponse parses a cart service body without validating the cart
func decodeCartResponse(body []byte) (*cartResponse, error) {
	var resp cartResponse
	if len(bytes.TrimSpace(body)) == 0 {
		return &resp, nil
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCart, err)
	}
	return &resp, nil
}

// validateCart enforces the boundary schema (quantity >= 1, prices >= 0) on lines whose
// product resolves. Dangling lines are left for FilterValid to drop, whatever they hold.
func validateCart(cart *models.RawCart) error {
	if cart.Items == nil {
		cart.Items = []models.CartLineItem{}
	}
	for i, item := range cart.Items {
		if !item.IsValid() {
			continue
		}
		if err := payloadValidator.Struct(item); err != nil {
			return fmt.Errorf("%w: item %d: %v", ErrMalformedCart, i, err)
		}
	}
	if cart.Calculations != nil {
		if err := payloadValidator.Struct(cart.Calculations); err != nil {
			return fmt.Errorf("%w: calculations: %v", ErrMalformedCart, err)
		}
	}
	return nil
}

// decodeCart parses and validates a cart body, ignoring success/message fields
func decodeCart(body []byte) (*models.RawCart, error) {
	resp, err := decodeCartResponse(body)
	if err != nil {
		return nil, err
	}
	cart := resp.cart()
	if err := validateCart(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// decodeGuestSession accepts {"sessionId": "..."}, {"guest_id": "..."} or a plain-text id
func decodeGuestSession(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '{' {
		var payload struct {
			SessionID string `json:"sessionId"`
			GuestID   string `json:"guest_id"`
		}
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return ""
		}
		if payload.SessionID != "" {
			return payload.SessionID
		}
		return payload.GuestID
	}
	if trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return ""
		}
		return id
	}
	return string(trimmed)
}
