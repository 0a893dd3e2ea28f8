package pricing

import (
	"github.com/shopspring/decimal"

	"storefront-gateway/models"
)

var hundred = decimal.NewFromInt(100)

// Engine computes display totals for the regular and wholesale partitions of a cart
type Engine struct {
	policy Policy
}

// NewEngine creates a new pricing engine for the given fallback policy
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// ValidItems returns the valid line items in their original order
func ValidItems(items []models.CartLineItem) []models.CartLineItem {
	valid := make([]models.CartLineItem, 0, len(items))
	for _, item := range items {
		if item.IsValid() {
			valid = append(valid, item)
		}
	}
	return valid
}

// Partition splits valid items into the regular and wholesale partitions.
// Invalid items land in neither.
func Partition(items []models.CartLineItem) (regular, wholesale []models.CartLineItem) {
	regular = make([]models.CartLineItem, 0, len(items))
	wholesale = make([]models.CartLineItem, 0)
	for _, item := range items {
		if !item.IsValid() {
			continue
		}
		if item.Product.IsWholesale() {
			wholesale = append(wholesale, item)
		} else {
			regular = append(regular, item)
		}
	}
	return regular, wholesale
}

// subtotal sums TotalPrice over the given items
func subtotal(items []models.CartLineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.TotalPrice)
	}
	return sum
}

// resolve picks the explicit amount when the field was sent (including 0), otherwise the fallback
func resolve(amount models.OptionalAmount, fallback decimal.Decimal) decimal.Decimal {
	if amount.Present {
		return amount.Value
	}
	return fallback
}

// Summarize computes subtotal, shipping, tax and total for a list of line items.
//
// Shipping and tax rate come from the first valid item's product; a cart with
// several products or vendors is still charged by its first line.
func (e *Engine) Summarize(items []models.CartLineItem) models.CartSummary {
	valid := ValidItems(items)
	if len(valid) == 0 {
		return models.CartSummary{
			Subtotal:       decimal.Zero,
			Shipping:       decimal.Zero,
			Tax:            decimal.Zero,
			Total:          decimal.Zero,
			TaxRatePercent: decimal.Zero,
		}
	}

	sub := subtotal(valid)
	first := valid[0].Product
	shipping := resolve(first.ShippingCharges, e.policy.DefaultShippingCharge)
	taxRate := resolve(first.TaxRate, e.policy.DefaultTaxRatePercent)
	tax := sub.Mul(taxRate).Div(hundred)

	return models.CartSummary{
		Subtotal:       sub,
		Shipping:       shipping,
		Tax:            tax,
		Total:          sub.Add(shipping).Add(tax),
		TaxRatePercent: taxRate,
		ItemCount:      len(valid),
	}
}

// SummarizeWholesale computes the wholesale calculations for a cart.
// Only valid WHOLESALE items are considered. Server calculations, when sent,
// are passed through untouched; otherwise the discount-then-tax fallback applies.
func (e *Engine) SummarizeWholesale(items []models.CartLineItem, server *models.CartCalculations) models.WholesaleSummary {
	_, wholesale := Partition(items)
	if len(wholesale) == 0 {
		return models.WholesaleSummary{
			Calculations: zeroCalculations(),
			Shipping:     decimal.Zero,
			Source:       models.CalculationSourceEmpty,
			Empty:        true,
		}
	}

	if server != nil {
		return models.WholesaleSummary{
			Calculations: *server,
			Shipping:     decimal.Zero,
			Source:       models.CalculationSourceServer,
			ItemCount:    len(wholesale),
		}
	}

	sub := subtotal(wholesale)
	discount := sub.Mul(e.policy.WholesaleDiscountPercent).Div(hundred)
	afterDiscount := sub.Sub(discount)
	tax := afterDiscount.Mul(e.policy.WholesaleTaxRatePercent).Div(hundred)

	return models.WholesaleSummary{
		Calculations: models.CartCalculations{
			Subtotal:           sub,
			Discount:           discount,
			DiscountPercentage: e.policy.WholesaleDiscountPercent,
			Tax:                tax,
			TaxPercentage:      e.policy.WholesaleTaxRatePercent,
			Total:              afterDiscount.Add(tax).Add(e.policy.WholesaleFlatShipping),
		},
		Shipping:  e.policy.WholesaleFlatShipping,
		Source:    models.CalculationSourceFallback,
		ItemCount: len(wholesale),
	}
}

func zeroCalculations() models.CartCalculations {
	return models.CartCalculations{
		Subtotal:           decimal.Zero,
		Discount:           decimal.Zero,
		DiscountPercentage: decimal.Zero,
		Tax:                decimal.Zero,
		TaxPercentage:      decimal.Zero,
		Total:              decimal.Zero,
	}
}
