package models

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// WholesaleCategory is the product category that routes a line item to the wholesale partition
const WholesaleCategory = "WHOLESALE"

func init() {
	// Totals go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// OptionalAmount is a pricing field that may be absent from the payload.
// An explicit null counts as present with a zero value.
type OptionalAmount struct {
	Present bool
	Value   decimal.Decimal
}

// Amount returns a present OptionalAmount holding v
func Amount(v decimal.Decimal) OptionalAmount {
	return OptionalAmount{Present: true, Value: v}
}

// UnmarshalJSON is only invoked when the key exists in the payload.
// A value that is not a number (e.g. "N/A") is treated as absent so the default applies.
func (o *OptionalAmount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Amount(decimal.Zero)
		return nil
	}
	var value decimal.Decimal
	if err := value.UnmarshalJSON(data); err != nil {
		*o = OptionalAmount{}
		return nil
	}
	*o = Amount(value)
	return nil
}

// MarshalJSON writes the value; absent amounts are dropped by the omitzero tag
func (o OptionalAmount) MarshalJSON() ([]byte, error) {
	return o.Value.MarshalJSON()
}

// IsZero reports whether the amount was absent
func (o OptionalAmount) IsZero() bool {
	return !o.Present
}

// ProductRef is the subset of a catalog product the cart math needs
type ProductRef struct {
	ID              string         `json:"_id"`
	Name            string         `json:"name"`
	Category        string         `json:"category,omitempty"`
	ShippingCharges OptionalAmount `json:"shippingCharges,omitzero"`
	TaxRate         OptionalAmount `json:"taxRate,omitzero"` // percent
}

// UnmarshalJSON accepts both a populated product object and a bare id string
// (an unpopulated reference, which is never a valid line item).
func (p *ProductRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return err
		}
		*p = ProductRef{ID: id}
		return nil
	}

	type productAlias ProductRef
	var alias productAlias
	if err := json.Unmarshal(trimmed, &alias); err != nil {
		return err
	}
	*p = ProductRef(alias)
	return nil
}

// IsWholesale reports whether the product belongs to the wholesale partition
func (p *ProductRef) IsWholesale() bool {
	return p != nil && p.Category == WholesaleCategory
}

// CartLineItem represents one line of a cart as returned by the cart service
type CartLineItem struct {
	Product       *ProductRef     `json:"product"`
	Quantity      int             `json:"quantity" validate:"gte=1"`
	Size          *string         `json:"size"`
	PurchasePrice decimal.Decimal `json:"purchasePrice" validate:"gte=0"`
	TotalPrice    decimal.Decimal `json:"totalPrice" validate:"gte=0"`
}

// IsValid reports whether the line item references a resolvable product.
// Items whose product was deleted after being added come back null or partial.
func (i CartLineItem) IsValid() bool {
	return i.Product != nil && i.Product.ID != "" && i.Product.Name != ""
}

// ProductID returns the referenced product id, or "" when the product is missing
func (i CartLineItem) ProductID() string {
	if i.Product == nil {
		return ""
	}
	return i.Product.ID
}

// CartCalculations holds server-computed wholesale totals. When present they are authoritative.
type CartCalculations struct {
	Subtotal           decimal.Decimal `json:"subtotal" validate:"gte=0"`
	Discount           decimal.Decimal `json:"discount"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Tax                decimal.Decimal `json:"tax"`
	TaxPercentage      decimal.Decimal `json:"taxPercentage"`
	Total              decimal.Decimal `json:"total" validate:"gte=0"`
}

// RawCart is the cart document owned by the external cart service
type RawCart struct {
	ID           string            `json:"_id,omitempty"`
	Items        []CartLineItem    `json:"items"`
	Calculations *CartCalculations `json:"calculations,omitempty"`
}

// AddItemRequest represents the request body for adding an item to a cart
type AddItemRequest struct {
	Product  string  `json:"product" binding:"required"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
	Size     *string `json:"size,omitempty"`
}

// RemoveItemRequest represents the request body for removing an item from a cart
type RemoveItemRequest struct {
	Product string  `json:"product"`
	Size    *string `json:"size,omitempty"`
}
