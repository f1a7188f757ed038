package processing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/order-engine/internal/domain/order"
	"github.com/xenking/order-engine/internal/ledger"
)

const metaPreOrderDiscount = "preOrderDiscount"

// PreOrderProcessor handles pre-order items: release window validation, slot
// reservation, and optional launch discount.
type PreOrderProcessor struct {
	preOrders *ledger.PreOrders
}

// NewPreOrderProcessor creates the processor for PRE_ORDER items.
func NewPreOrderProcessor(preOrders *ledger.PreOrders) *PreOrderProcessor {
	return &PreOrderProcessor{preOrders: preOrders}
}

// Process implements ItemProcessor. When metadata supplies a discount
// fraction, the item total and the order running total are both reduced by
// originalItemTotal × fraction.
func (p *PreOrderProcessor) Process(ctx context.Context, o *order.Order, idx int, _ *Context) error {
	item := &o.Items[idx]

	if err := p.preOrders.Reserve(ctx, item.ProductID, item.Quantity); err != nil {
		return err
	}

	if item.Metadata.Has(metaPreOrderDiscount) {
		fraction, err := metadataDecimal(item.Metadata, metaPreOrderDiscount)
		if err != nil {
			return order.NewBusinessError(order.ReasonInvalidRequest,
				"invalid %s for product %s: %v", metaPreOrderDiscount, item.ProductID, err)
		}
		discount := item.TotalPrice.Mul(fraction)
		o.ApplyItemDiscount(idx, discount)
	}

	return nil
}

// metadataDecimal reads a metadata value as a decimal. JSON decoding yields
// float64 for numbers and string for quoted values; both are accepted.
func metadataDecimal(m order.Metadata, key string) (decimal.Decimal, error) {
	switch v := m[key].(type) {
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported value %v", v)
	}
}
