package models

import "github.com/shopspring/decimal"

// Wholesale calculation sources
const (
	CalculationSourceServer   = "server"
	CalculationSourceFallback = "fallback"
	CalculationSourceEmpty    = "empty"
)

// CartSummary represents the derived totals of the regular partition of a cart
type CartSummary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Shipping       decimal.Decimal `json:"shipping"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	TaxRatePercent decimal.Decimal `json:"taxRatePercent"` // Rate actually applied (explicit or default)
	ItemCount      int             `json:"itemCount"`      // Number of valid lines summed
}

// WholesaleSummary represents the totals of the wholesale partition of a cart
type WholesaleSummary struct {
	Calculations CartCalculations `json:"calculations"`
	Shipping     decimal.Decimal  `json:"shipping"` // Flat surcharge, only set on the fallback path
	Source       string           `json:"source"`   // "server", "fallback" or "empty"
	Empty        bool             `json:"empty"`    // Dedicated empty-wholesale-cart state, not an error
	ItemCount    int              `json:"itemCount"`
}

// DisplayTotals holds formatted amounts for the storefront
type DisplayTotals struct {
	Subtotal       string `json:"subtotal"`
	Shipping       string `json:"shipping"`
	Tax            string `json:"tax"`
	Total          string `json:"total"`
	WholesaleTotal string `json:"wholesaleTotal"`
}

// CartView is the fetch-validate-summarize snapshot a storefront view renders
type CartView struct {
	Identity         CartIdentifier   `json:"identity"`
	Items            []CartLineItem   `json:"items"`          // Valid regular items
	WholesaleItems   []CartLineItem   `json:"wholesaleItems"` // Valid wholesale items
	InvalidItemCount int              `json:"invalidItemCount"`
	Regular          CartSummary      `json:"regular"`
	Wholesale        WholesaleSummary `json:"wholesale"`
	Display          DisplayTotals    `json:"display"`
	Empty            bool             `json:"empty"` // No valid items in either partition
}

// ItemCount returns the badge count: total quantity over all valid items
func (v *CartView) ItemCount() int {
	if v == nil {
		return 0
	}
	count := 0
	for _, item := range v.Items {
		count += item.Quantity
	}
	for _, item := range v.WholesaleItems {
		count += item.Quantity
	}
	return count
}
