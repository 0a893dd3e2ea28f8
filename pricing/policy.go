package pricing

import "github.com/shopspring/decimal"

// Policy holds the fallback constants applied when the cart service omits pricing fields.
// Both the regular and the wholesale aggregator read from the same Policy.
type Policy struct {
	DefaultShippingCharge    decimal.Decimal
	DefaultTaxRatePercent    decimal.Decimal
	WholesaleDiscountPercent decimal.Decimal
	WholesaleTaxRatePercent  decimal.Decimal
	WholesaleFlatShipping    decimal.Decimal
}

// DefaultPolicy returns the storefront's stock fallback constants
func DefaultPolicy() Policy {
	return Policy{
		DefaultShippingCharge:    decimal.NewFromInt(50),
		DefaultTaxRatePercent:    decimal.NewFromInt(18),
		WholesaleDiscountPercent: decimal.NewFromInt(10),
		WholesaleTaxRatePercent:  decimal.NewFromInt(18),
		WholesaleFlatShipping:    decimal.NewFromInt(100),
	}
}

// PolicyFromFloats builds a Policy from configuration values
func PolicyFromFloats(shipping, taxRate, wholesaleDiscount, wholesaleTaxRate, wholesaleShipping float64) Policy {
	return Policy{
		DefaultShippingCharge:    decimal.NewFromFloat(shipping),
		DefaultTaxRatePercent:    decimal.NewFromFloat(taxRate),
		WholesaleDiscountPercent: decimal.NewFromFloat(wholesaleDiscount),
		WholesaleTaxRatePercent:  decimal.NewFromFloat(wholesaleTaxRate),
		WholesaleFlatShipping:    decimal.NewFromFloat(wholesaleShipping),
	}
}
