package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// DefaultCurrency is used for catalog entries that omit a currency code.
const DefaultCurrency = "KM"

// Product represents a honey listing available for purchase. Price is the
// price of the nominal Weight; other AvailableWeights are priced
// proportionally.
type Product struct {
	ID               int
	Slug             string
	Name             string
	Description      string
	Price            decimal.Decimal
	Weight           string
	AvailableWeights []string
	CategorySlug     string
	Seller           Seller
	Rating           float64
	InStock          bool
	Stock            int
	Currency         string
	Image            string
}

// Seller is the beekeeper offering a product.
type Seller struct {
	ID       int
	Name     string
	Location string
}

// HasWeight reports whether w is one of the product's purchasable weights.
func (p *Product) HasWeight(w string) bool {
	for _, aw := range p.AvailableWeights {
		if aw == w {
			return true
		}
	}
	return false
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	GetByIDs(ctx context.Context, ids []int) ([]Product, error)
}
