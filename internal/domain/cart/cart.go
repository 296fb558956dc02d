package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

// MaxQuantity is the platform cap on the quantity of a single cart line,
// regardless of stock.
const MaxQuantity = 10

// Sentinel errors returned by cart mutations.
var (
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrUnknownWeight   = errors.New("weight is not available for product")
	ErrLineNotFound    = errors.New("cart line not found")
)

// QuantityExceedsStockError indicates a mutation would push a line above the
// allowed quantity for its product.
type QuantityExceedsStockError struct {
	ProductID int
	Limit     int
}

func (e *QuantityExceedsStockError) Error() string {
	return fmt.Sprintf("quantity for product %d exceeds limit of %d", e.ProductID, e.Limit)
}

// Line is one (product, weight) entry of a cart.
type Line struct {
	ProductID int
	Weight    string
	Quantity  int
}

// Key identifies a line within a cart.
type Key struct {
	ProductID int
	Weight    string
}

// Key returns the line's identity.
func (l Line) Key() Key {
	return Key{ProductID: l.ProductID, Weight: l.Weight}
}

// index returns the position of the line with key k, or -1.
func index(lines []Line, k Key) int {
	for i, l := range lines {
		if l.Key() == k {
			return i
		}
	}
	return -1
}

// TotalQuantity returns the number of units across all lines.
func TotalQuantity(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
