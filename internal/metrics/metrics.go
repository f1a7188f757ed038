// Package metrics records order-processing measurements through the
// OpenTelemetry metric API.
package metrics

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/order-engine/internal/domain/order"
)

// Metrics holds the processing instruments. All methods are safe for
// concurrent use and never fail.
type Metrics struct {
	processed       metric.Int64Counter
	failed          metric.Int64Counter
	pendingApproval metric.Int64Counter
	lowStock        metric.Int64Counter
	orderAmount     metric.Float64Histogram
}

// New creates the processing instruments on the given meter.
func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.processed, err = meter.Int64Counter("orders_processed_total",
		metric.WithDescription("Orders that reached the PROCESSED status")); err != nil {
		return nil, errors.Wrap(err, "orders_processed_total")
	}
	if m.failed, err = meter.Int64Counter("orders_failed_total",
		metric.WithDescription("Orders that reached the FAILED status, by reason")); err != nil {
		return nil, errors.Wrap(err, "orders_failed_total")
	}
	if m.pendingApproval, err = meter.Int64Counter("orders_pending_approval_total",
		metric.WithDescription("Orders routed to manual approval")); err != nil {
		return nil, errors.Wrap(err, "orders_pending_approval_total")
	}
	if m.lowStock, err = meter.Int64Counter("low_stock_alerts_total",
		metric.WithDescription("Low-stock alerts raised during reservation, by product")); err != nil {
		return nil, errors.Wrap(err, "low_stock_alerts_total")
	}
	if m.orderAmount, err = meter.Float64Histogram("order_amount",
		metric.WithDescription("Total amount of processed orders")); err != nil {
		return nil, errors.Wrap(err, "order_amount")
	}

	return m, nil
}

// Nop returns metrics that record nothing. Intended for tests.
func Nop() *Metrics {
	m, _ := New(noop.NewMeterProvider().Meter(""))
	return m
}

// OrderProcessed records a successfully processed order and its amount.
func (m *Metrics) OrderProcessed(ctx context.Context, o *order.Order) {
	m.processed.Add(ctx, 1)
	amount, _ := o.TotalAmount.Float64()
	m.orderAmount.Record(ctx, amount)
}

// OrderFailed records a failed order by reason.
func (m *Metrics) OrderFailed(ctx context.Context, reason order.FailureReason) {
	m.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(reason))))
}

// OrderPendingApproval records an order routed to manual approval.
func (m *Metrics) OrderPendingApproval(ctx context.Context) {
	m.pendingApproval.Add(ctx, 1)
}

// LowStockAlert records a low-stock alert for a product.
func (m *Metrics) LowStockAlert(ctx context.Context, productID string) {
	m.lowStock.Add(ctx, 1, metric.WithAttributes(attribute.String("product_id", productID)))
}
