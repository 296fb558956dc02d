package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/honey-market/internal/domain/cart"
	"github.com/xenking/honey-market/internal/domain/product"
	"github.com/xenking/honey-market/internal/domain/promocode"
)

// Resolver looks up a product by id. ok is false when the product is no
// longer in the catalog.
type Resolver func(id int) (p product.Product, ok bool)

// MapResolver returns a Resolver over an already fetched set of products.
func MapResolver(products []product.Product) Resolver {
	byID := make(map[int]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return func(id int) (product.Product, bool) {
		p, ok := byID[id]
		return p, ok
	}
}

// LineTotal is the priced breakdown of one cart line.
type LineTotal struct {
	Product   product.Product
	Weight    string
	Quantity  int
	BasePrice decimal.Decimal // price for the weight, before the featured discount
	UnitPrice decimal.Decimal
	Featured  bool
	Total     decimal.Decimal
}

// Totals is the derived price summary of a cart. All amounts are exact;
// rounding happens only through Display and DisplayTotal.
type Totals struct {
	Lines      []LineTotal
	ItemsTotal decimal.Decimal
	Delivery   decimal.Decimal
	Tax        decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	Promocode  string
}

// ComputeTotals prices lines against the catalog and applies delivery, tax,
// and the promocode discount. Lines whose product cannot be resolved are
// left out. The result depends only on its arguments.
func ComputeTotals(lines []cart.Line, resolve Resolver, code string) Totals {
	t := Totals{
		ItemsTotal: decimal.Zero,
		Delivery:   decimal.Zero,
		Discount:   decimal.Zero,
	}
	for _, l := range lines {
		p, ok := resolve(l.ProductID)
		if !ok {
			continue
		}
		base := PriceForWeight(p, l.Weight)
		featured := IsFeaturedOffer(p)
		unit := DiscountedPrice(base, featured)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))

		t.Lines = append(t.Lines, LineTotal{
			Product:   p,
			Weight:    l.Weight,
			Quantity:  l.Quantity,
			BasePrice: base,
			UnitPrice: unit,
			Featured:  featured,
			Total:     lineTotal,
		})
		t.ItemsTotal = t.ItemsTotal.Add(lineTotal)
	}

	if t.ItemsTotal.IsPositive() {
		t.Delivery = DeliveryCost(t.ItemsTotal)
	}
	t.Tax = t.ItemsTotal.Mul(TaxRate)
	if promocode.IsValid(code) {
		t.Promocode = promocode.Normalize(code)
		t.Discount = t.ItemsTotal.Mul(promocode.Rate)
	}
	t.Total = t.ItemsTotal.Add(t.Delivery).Add(t.Tax).Sub(t.Discount)
	return t
}

// Display holds totals rounded for presentation.
type Display struct {
	ItemsTotal decimal.Decimal
	Delivery   decimal.Decimal
	Tax        decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
}

// DisplayTotal returns the grand total rounded half-up to whole units.
func (t Totals) DisplayTotal() decimal.Decimal {
	return t.Total.Round(0)
}

// Display rounds every component half-up to whole currency units. The
// rounded components are not guaranteed to add up to the rounded total,
// which is always derived from the exact sum.
func (t Totals) Display() Display {
	return Display{
		ItemsTotal: t.ItemsTotal.Round(0),
		Delivery:   t.Delivery.Round(0),
		Tax:        t.Tax.Round(0),
		Discount:   t.Discount.Round(0),
		Total:      t.DisplayTotal(),
	}
}

// Equal reports whether two totals agree on every amount and the applied code.
func (t Totals) Equal(o Totals) bool {
	return t.ItemsTotal.Equal(o.ItemsTotal) &&
		t.Delivery.Equal(o.Delivery) &&
		t.Tax.Equal(o.Tax) &&
		t.Discount.Equal(o.Discount) &&
		t.Total.Equal(o.Total) &&
		t.Promocode == o.Promocode &&
		len(t.Lines) == len(o.Lines)
}

// Quantity returns the number of priced units.
func (t Totals) Quantity() int {
	n := 0
	for _, l := range t.Lines {
		n += l.Quantity
	}
	return n
}
