package processing

import (
	"context"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/order-engine/internal/domain/catalog"
	"github.com/xenking/order-engine/internal/domain/order"
	"github.com/xenking/order-engine/internal/ledger"
	"github.com/xenking/order-engine/internal/metrics"
)

const (
	metaWarehouseLocation = "warehouseLocation"
	metaDeliveryEtaDays   = "deliveryEtaDays"

	// deliveryEtaDefault is the ETA band stamped on items that supplied a
	// warehouse location.
	deliveryEtaDefault = "5-10"

	// warehouseUnavailablePrefix marks a warehouse location as unusable.
	warehouseUnavailablePrefix = "UNAVAILABLE"

	// lowStockThreshold triggers a low-stock alert after reservation.
	lowStockThreshold = 5
)

// PhysicalProcessor handles physical product items: warehouse availability,
// stock reservation, low-stock alerting, and delivery ETA annotation.
type PhysicalProcessor struct {
	catalog   catalog.Catalog
	stock     *ledger.Stock
	publisher EventPublisher
	metrics   *metrics.Metrics
}

// NewPhysicalProcessor creates the processor for PHYSICAL items.
func NewPhysicalProcessor(c catalog.Catalog, stock *ledger.Stock, publisher EventPublisher, m *metrics.Metrics) *PhysicalProcessor {
	return &PhysicalProcessor{catalog: c, stock: stock, publisher: publisher, metrics: m}
}

// Process implements ItemProcessor.
func (p *PhysicalProcessor) Process(ctx context.Context, o *order.Order, idx int, _ *Context) error {
	item := &o.Items[idx]

	info, err := p.catalog.GetRequiredProduct(ctx, item.ProductID)
	if err != nil {
		return err
	}

	location := item.Metadata.String(metaWarehouseLocation)
	if location != "" && strings.HasPrefix(strings.ToUpper(location), warehouseUnavailablePrefix) {
		return order.NewBusinessError(order.ReasonWarehouseUnavailable,
			"warehouse %s is currently unavailable for product %s", location, info.ProductID)
	}

	initial := 0
	if info.Stock != nil {
		initial = *info.Stock
	}
	p.stock.InitIfAbsent(info.ProductID, initial)

	remaining, err := p.stock.Reserve(info.ProductID, item.Quantity)
	if err != nil {
		return err
	}

	zctx.From(ctx).Info("Physical item reserved",
		zap.String("order_id", o.ID),
		zap.String("product_id", info.ProductID),
		zap.Int("quantity", item.Quantity),
		zap.Int("remaining", remaining),
	)

	if remaining < lowStockThreshold {
		if err := p.publisher.LowStockAlert(ctx, info.ProductID, remaining); err != nil {
			zctx.From(ctx).Error("Publish low stock alert",
				zap.String("product_id", info.ProductID), zap.Error(err))
		}
		p.metrics.LowStockAlert(ctx, info.ProductID)
	}

	if item.Metadata.Has(metaWarehouseLocation) {
		item.Metadata[metaDeliveryEtaDays] = deliveryEtaDefault
	}

	return nil
}
