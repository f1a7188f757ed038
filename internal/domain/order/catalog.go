package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProductInfo describes a catalog entry. Capacity fields are optional and
// type-specific: Stock for physical products, Licenses for digital products,
// ReleaseDate and PreOrderSlots for pre-orders.
//
// The catalog package re-exports this type as catalog.ProductInfo; it is
// defined here so the order service can use the catalog contract without an
// import cycle.
type ProductInfo struct {
	ProductID     string
	Name          string
	ProductType   ProductType
	Price         decimal.Decimal
	Stock         *int
	Licenses      *int
	ReleaseDate   *time.Time
	PreOrderSlots *int
	Active        bool
}

// Catalog resolves product ids to product information. The processing core
// treats the catalog as an external collaborator and only requires this
// lookup contract.
type Catalog interface {
	// GetRequiredProduct returns the product for id, or a BusinessError
	// with INVALID_REQUEST when the product is absent or inactive.
	GetRequiredProduct(ctx context.Context, id string) (*ProductInfo, error)
}
