package service

import (
	"storefront-gateway/models"
	"storefront-gateway/pricing"
)

// FilterValid returns the cart's valid line items in their original order.
// Applying it to its own output returns the same items.
func FilterValid(cart *models.RawCart) []models.CartLineItem {
	if cart == nil {
		return []models.CartLineItem{}
	}
	return pricing.ValidItems(cart.Items)
}

// InvalidCount returns how many line items FilterValid drops
func InvalidCount(cart *models.RawCart) int {
	if cart == nil {
		return 0
	}
	return len(cart.Items) - len(FilterValid(cart))
}
