package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the order lifecycle state. An order is created PENDING and is
// moved exactly once to one of the terminal states by the processing
// orchestrator.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailed          Status = "FAILED"
	StatusPendingApproval Status = "PENDING_APPROVAL"
)

// Terminal reports whether the status is final. Re-delivery of the
// triggering event for an order in a terminal status is a no-op.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// ProductType determines which processor and resource ledger apply to an item.
type ProductType string

const (
	TypePhysical     ProductType = "PHYSICAL"
	TypeSubscription ProductType = "SUBSCRIPTION"
	TypeDigital      ProductType = "DIGITAL"
	TypePreOrder     ProductType = "PRE_ORDER"
	TypeCorporate    ProductType = "CORPORATE"
)

// Metadata holds processor-specific item attributes (warehouse location,
// CNPJ, discount fractions, generated license keys, ...).
type Metadata map[string]any

// String returns the metadata value for key as a string, or "" when the key
// is absent or not a string.
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// Has reports whether the key is present.
func (m Metadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Item is a single line item in an order. Items are owned by their order and
// processed strictly in insertion order.
type Item struct {
	ID          string
	ProductID   string
	ProductType ProductType
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
	Metadata    Metadata
}

// Order is a multi-item customer order. TotalAmount always equals the sum of
// item TotalPrice; FailureReason and FailureMessage are set iff the status is
// FAILED or PENDING_APPROVAL.
type Order struct {
	ID             string
	CustomerID     string
	Items          []Item
	TotalAmount    decimal.Decimal
	Status         Status
	FailureReason  FailureReason
	FailureMessage string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AddItem appends an item and folds its total into the order amount.
func (o *Order) AddItem(item Item) {
	o.Items = append(o.Items, item)
	o.TotalAmount = o.TotalAmount.Add(item.TotalPrice)
}

// ApplyItemDiscount reduces the item at index i and the order total by
// amount, keeping the sum invariant intact.
func (o *Order) ApplyItemDiscount(i int, amount decimal.Decimal) {
	o.Items[i].TotalPrice = o.Items[i].TotalPrice.Sub(amount)
	o.TotalAmount = o.TotalAmount.Sub(amount)
}

// MarkProcessed transitions the order to PROCESSED and clears any failure
// information.
func (o *Order) MarkProcessed(now time.Time) {
	o.Status = StatusProcessed
	o.FailureReason = ""
	o.FailureMessage = ""
	o.UpdatedAt = now
}

// MarkFailed transitions the order to FAILED with the given reason.
func (o *Order) MarkFailed(reason FailureReason, message string, now time.Time) {
	o.Status = StatusFailed
	o.FailureReason = reason
	o.FailureMessage = message
	o.UpdatedAt = now
}

// MarkPendingApproval transitions the order to PENDING_APPROVAL.
func (o *Order) MarkPendingApproval(message string, now time.Time) {
	o.Status = StatusPendingApproval
	o.FailureReason = ReasonPendingManualApproval
	o.FailureMessage = message
	o.UpdatedAt = now
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error)
}
