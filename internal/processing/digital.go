package processing

import (
	"context"

	"github.com/google/uuid"

	"github.com/xenking/order-engine/internal/domain/order"
	"github.com/xenking/order-engine/internal/ledger"
)

const (
	metaLicenseKey    = "licenseKey"
	metaDeliveryEmail = "deliveryEmail"

	defaultDeliveryEmail = "noreply@example.com"
)

// DigitalProcessor handles digital product items: ownership check, license
// pool allocation, and license key generation.
type DigitalProcessor struct {
	licenses *ledger.Licenses
}

// NewDigitalProcessor creates the processor for DIGITAL items.
func NewDigitalProcessor(licenses *ledger.Licenses) *DigitalProcessor {
	return &DigitalProcessor{licenses: licenses}
}

// Process implements ItemProcessor. On success the item metadata carries a
// freshly generated license key and a delivery email defaulted when absent.
func (p *DigitalProcessor) Process(ctx context.Context, o *order.Order, idx int, _ *Context) error {
	item := &o.Items[idx]

	if err := p.licenses.Allocate(ctx, o.CustomerID, item.ProductID, item.Quantity); err != nil {
		return err
	}

	if item.Metadata == nil {
		item.Metadata = make(order.Metadata, 2)
	}
	item.Metadata[metaLicenseKey] = uuid.NewString()
	if !item.Metadata.Has(metaDeliveryEmail) {
		item.Metadata[metaDeliveryEmail] = defaultDeliveryEmail
	}

	return nil
}
