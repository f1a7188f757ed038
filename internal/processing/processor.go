package processing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xenking/order-engine/internal/domain/order"
)

// ItemProcessor applies the type-specific validation, resource reservation,
// and price adjustment rules for one order item. The item is addressed by
// index so a processor can adjust its price in place. A returned
// *order.BusinessError aborts the remaining items and fails the order.
type ItemProcessor interface {
	Process(ctx context.Context, o *order.Order, idx int, pc *Context) error
}

// EventPublisher emits the outbound events raised during processing: exactly
// one terminal event per orchestration run plus the side-channel alerts.
type EventPublisher interface {
	OrderProcessed(ctx context.Context, o *order.Order) error
	OrderFailed(ctx context.Context, o *order.Order, reason order.FailureReason, message string) error
	OrderPendingApproval(ctx context.Context, o *order.Order) error
	LowStockAlert(ctx context.Context, productID string, remaining int) error
	FraudAlert(ctx context.Context, orderID string, amount decimal.Decimal) error
}

// Registry is the exhaustive mapping from product type to processor,
// resolved once at startup. An unmapped type is a configuration error the
// orchestrator surfaces as a failed order, never a runtime guess.
type Registry struct {
	byType map[order.ProductType]ItemProcessor
}

// NewRegistry builds the registry with one processor per product type. Every
// argument is required.
func NewRegistry(physical, subscription, digital, preOrder, corporate ItemProcessor) *Registry {
	return &Registry{byType: map[order.ProductType]ItemProcessor{
		order.TypePhysical:     physical,
		order.TypeSubscription: subscription,
		order.TypeDigital:      digital,
		order.TypePreOrder:     preOrder,
		order.TypeCorporate:    corporate,
	}}
}

// Get returns the processor registered for the product type.
func (r *Registry) Get(t order.ProductType) (ItemProcessor, bool) {
	p, ok := r.byType[t]
	return p, ok
}
