package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for order operations.
var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("order status transition not allowed")
)

// Status is the fulfilment state of an order.
type Status string

// Order lifecycle: pending -> processing -> shipped -> delivered, with
// cancellation possible until the order ships.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

// ParseStatus validates s as a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Customer holds the delivery details entered at checkout.
type Customer struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,min=6,max=32"`
	Address string `json:"address" validate:"required,max=300"`
	City    string `json:"city" validate:"required,max=100"`
	Note    string `json:"note,omitempty" validate:"max=1000"`
}

// Line is a priced snapshot of a cart line at the time the order was placed.
type Line struct {
	ProductID int             `json:"productId"`
	Name      string          `json:"name"`
	Weight    string          `json:"weight"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Featured  bool            `json:"featured"`
	Total     decimal.Decimal `json:"total"`
}

// Order is an immutable checkout snapshot; only Status and UpdatedAt change
// after creation.
type Order struct {
	ID         string
	SessionID  string
	Customer   Customer
	Lines      []Line
	ItemsTotal decimal.Decimal
	Delivery   decimal.Decimal
	Tax        decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	Promocode  string
	Currency   string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DisplayTotal returns the grand total rounded to whole currency units.
func (o *Order) DisplayTotal() decimal.Decimal {
	return o.Total.Round(0)
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]Order, error)
	// UpdateStatus moves the order from one status to another. It returns
	// ErrInvalidTransition when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error
}
