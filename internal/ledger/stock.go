package ledger

import "github.com/xenking/order-engine/internal/domain/order"

type stockRecord struct {
	initialized bool
	remaining   int
}

// Stock tracks remaining inventory per physical product. Capacity is seeded
// lazily from the catalog the first time a product is seen.
type Stock struct {
	products records[stockRecord]
}

// NewStock returns an empty stock ledger.
func NewStock() *Stock {
	return &Stock{}
}

// InitIfAbsent seeds the remaining stock for a product if it has not been
// initialized yet. Later calls are no-ops.
func (s *Stock) InitIfAbsent(productID string, stock int) {
	_ = s.products.withKey(productID, func(rec *stockRecord) error {
		if !rec.initialized {
			rec.initialized = true
			rec.remaining = stock
		}
		return nil
	})
}

// Reserve atomically verifies that at least quantity units remain and
// decrements. It returns the remaining stock after the reservation, or an
// OUT_OF_STOCK business error leaving the ledger untouched.
func (s *Stock) Reserve(productID string, quantity int) (int, error) {
	remaining := 0
	err := s.products.withKey(productID, func(rec *stockRecord) error {
		if rec.remaining < quantity {
			return order.NewBusinessError(order.ReasonOutOfStock, "not enough stock for %s", productID)
		}
		rec.remaining -= quantity
		remaining = rec.remaining
		return nil
	})
	return remaining, err
}

// Remaining returns the current stock level for a product.
func (s *Stock) Remaining(productID string) int {
	remaining := 0
	_ = s.products.withKey(productID, func(rec *stockRecord) error {
		remaining = rec.remaining
		return nil
	})
	return remaining
}
