package ledger

import (
	"context"

	"github.com/xenking/order-engine/internal/domain/catalog"
	"github.com/xenking/order-engine/internal/domain/order"
)

type licensePool struct {
	initialized bool
	remaining   int
}

// Licenses tracks the remaining license pool per digital product and the set
// of products each customer already owns. Pools are seeded lazily from the
// catalog on first allocation.
type Licenses struct {
	catalog   catalog.Catalog
	customers records[map[string]struct{}]
	products  records[licensePool]
}

// NewLicenses returns a license ledger backed by the given catalog.
func NewLicenses(c catalog.Catalog) *Licenses {
	return &Licenses{catalog: c}
}

// Allocate reserves quantity licenses of a product for a customer and marks
// the product owned. It fails with ALREADY_OWNED when the customer owns the
// product, or LICENSE_UNAVAILABLE when the pool is insufficient; either way
// the ledger is left untouched.
//
// The customer lock is held across the pool reservation so two concurrent
// orders for the same customer cannot both pass the ownership check. Lock
// order is always customer then product.
func (l *Licenses) Allocate(ctx context.Context, customerID, productID string, quantity int) error {
	return l.customers.withKey(customerID, func(owned *map[string]struct{}) error {
		if *owned == nil {
			*owned = make(map[string]struct{})
		}
		if _, ok := (*owned)[productID]; ok {
			return order.NewBusinessError(order.ReasonAlreadyOwned,
				"customer %s already owns digital product %s", customerID, productID)
		}
		if err := l.reserve(ctx, productID, quantity); err != nil {
			return err
		}
		(*owned)[productID] = struct{}{}
		return nil
	})
}

// Owns reports whether the customer already owns the product.
func (l *Licenses) Owns(customerID, productID string) bool {
	owns := false
	_ = l.customers.withKey(customerID, func(owned *map[string]struct{}) error {
		_, owns = (*owned)[productID]
		return nil
	})
	return owns
}

// Remaining returns the remaining license pool for a product, or -1 if the
// pool has not been initialized yet.
func (l *Licenses) Remaining(productID string) int {
	remaining := -1
	_ = l.products.withKey(productID, func(pool *licensePool) error {
		if pool.initialized {
			remaining = pool.remaining
		}
		return nil
	})
	return remaining
}

func (l *Licenses) reserve(ctx context.Context, productID string, quantity int) error {
	return l.products.withKey(productID, func(pool *licensePool) error {
		if !pool.initialized {
			info, err := l.catalog.GetRequiredProduct(ctx, productID)
			if err != nil {
				return err
			}
			if info.Licenses != nil {
				pool.remaining = *info.Licenses
			}
			pool.initialized = true
		}
		if pool.remaining < quantity {
			return order.NewBusinessError(order.ReasonLicenseUnavailable,
				"not enough licenses available for %s", productID)
		}
		pool.remaining -= quantity
		return nil
	})
}
