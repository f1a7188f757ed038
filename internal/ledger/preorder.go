package ledger

import (
	"context"
	"time"

	"github.com/xenking/order-engine/internal/domain/catalog"
	"github.com/xenking/order-engine/internal/domain/order"
)

// PreOrders tracks reserved pre-order slots per product. Slot capacity and
// the release date come from the catalog; reservations grow upwards until
// the configured slot count.
type PreOrders struct {
	catalog  catalog.Catalog
	now      func() time.Time
	products records[int]
}

// NewPreOrders returns a pre-order ledger backed by the given catalog.
func NewPreOrders(c catalog.Catalog) *PreOrders {
	return &PreOrders{catalog: c, now: time.Now}
}

// Reserve validates the product's release window and atomically reserves
// quantity slots. It fails with INVALID_RELEASE_DATE when no release date is
// configured, RELEASE_DATE_PASSED when the date is not in the future, or
// PRE_ORDER_SOLD_OUT when slot capacity is insufficient. Failures leave the
// ledger untouched.
func (p *PreOrders) Reserve(ctx context.Context, productID string, quantity int) error {
	return p.products.withKey(productID, func(reserved *int) error {
		info, err := p.catalog.GetRequiredProduct(ctx, productID)
		if err != nil {
			return err
		}

		if info.ReleaseDate == nil {
			return order.NewBusinessError(order.ReasonInvalidReleaseDate,
				"release date not configured for %s", productID)
		}
		if !info.ReleaseDate.After(p.now()) {
			return order.NewBusinessError(order.ReasonReleaseDatePassed,
				"release date already passed for %s", productID)
		}

		if info.PreOrderSlots == nil || *info.PreOrderSlots <= 0 {
			return order.NewBusinessError(order.ReasonPreOrderSoldOut,
				"no pre-order slots available for %s", productID)
		}
		if *reserved+quantity > *info.PreOrderSlots {
			return order.NewBusinessError(order.ReasonPreOrderSoldOut,
				"pre-order slots exceeded for %s", productID)
		}

		*reserved += quantity
		return nil
	})
}

// Reserved returns the number of slots currently reserved for a product.
func (p *PreOrders) Reserved(productID string) int {
	n := 0
	_ = p.products.withKey(productID, func(reserved *int) error {
		n = *reserved
		return nil
	})
	return n
}
