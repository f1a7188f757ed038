package catalog

import (
	"github.com/xenking/order-engine/internal/domain/order"
)

// ProductInfo describes a catalog entry. Capacity fields are optional and
// type-specific: Stock for physical products, Licenses for digital products,
// ReleaseDate and PreOrderSlots for pre-orders.
//
// The definition lives in the order package so the order service can depend
// on the lookup contract without importing this package back.
type ProductInfo = order.ProductInfo

// Catalog resolves product ids to product information. The processing core
// treats the catalog as an external collaborator and only requires this
// lookup contract.
type Catalog = order.Catalog

// NotFoundError builds the error GetRequiredProduct implementations return
// for an unknown or disabled product.
func NotFoundError(id string) *order.BusinessError {
	return order.NewBusinessError(order.ReasonInvalidRequest, "product %s not found or inactive", id)
}
