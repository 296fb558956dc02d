// Package pricing derives item prices and order totals from catalog products
// and cart lines. Every function is pure; the cart and checkout views both
// call ComputeTotals on their own snapshot and must arrive at the same
// figures.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/honey-market/internal/domain/product"
)

// Featured-offer rule inputs.
const (
	ForestHoneyCategory = "sumski-med"
	FeaturedLocation    = "Tuzla"
)

var (
	// FeaturedMultiplier is applied to the price of a featured offer (15% off).
	FeaturedMultiplier = decimal.RequireFromString("0.85")
	// TaxRate is the fixed tax applied to the items total.
	TaxRate = decimal.RequireFromString("0.17")
	// FreeDeliveryThreshold must be strictly exceeded for free delivery.
	FreeDeliveryThreshold = decimal.NewFromInt(50)
	// DeliveryFee is charged when the items total does not exceed the threshold.
	DeliveryFee = decimal.NewFromInt(5)
)

// PriceForWeight returns the price of p when bought at the selected weight,
// proportional to the product's nominal weight and price and rounded half-up
// to whole currency units. The nominal price is returned unchanged when the
// selection is empty, equals the nominal weight, or either weight has no
// numeric prefix.
func PriceForWeight(p product.Product, selected string) decimal.Decimal {
	if selected == "" || selected == p.Weight {
		return p.Price
	}
	base := product.ParseWeight(p.Weight)
	target := product.ParseWeight(selected)
	if base == 0 || target == 0 {
		return p.Price
	}
	return p.Price.
		Mul(decimal.NewFromInt(target)).
		Div(decimal.NewFromInt(base)).
		Round(0)
}

// IsFeaturedOffer reports whether p qualifies for the featured-offer
// discount. Rules are listed in order of precedence.
func IsFeaturedOffer(p product.Product) bool {
	if !p.InStock {
		return false
	}
	forest := p.CategorySlug == ForestHoneyCategory
	local := p.Seller.Location == FeaturedLocation
	switch {
	case forest && local:
		return true
	case forest:
		return true
	case local && p.Rating >= 4.0:
		return true
	case p.Rating >= 4.5:
		return true
	default:
		return false
	}
}

// DiscountedPrice applies the featured-offer discount to base when featured
// is set, rounding half-up to whole currency units.
func DiscountedPrice(base decimal.Decimal, featured bool) decimal.Decimal {
	if !featured {
		return base
	}
	return base.Mul(FeaturedMultiplier).Round(0)
}

// DeliveryCost returns the delivery fee for the given items total. Callers
// must not charge delivery on an empty cart; ComputeTotals does that guard.
func DeliveryCost(itemsTotal decimal.Decimal) decimal.Decimal {
	if itemsTotal.GreaterThan(FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return DeliveryFee
}

// UnitPrice is the price a shopper pays for one unit of p at weight.
func UnitPrice(p product.Product, weight string) decimal.Decimal {
	return DiscountedPrice(PriceForWeight(p, weight), IsFeaturedOffer(p))
}
