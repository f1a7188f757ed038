package events

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	stan "github.com/nats-io/stan.go"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-engine/internal/domain/order"
)

// Publisher emits order events to a NATS Streaming subject. It implements
// both the creation-side and the processing-side publisher contracts.
type Publisher struct {
	sc      stan.Conn
	subject string
}

// NewPublisher creates a Publisher on the given connection and subject.
func NewPublisher(sc stan.Conn, subject string) *Publisher {
	return &Publisher{sc: sc, subject: subject}
}

func (p *Publisher) publish(ev Envelope) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := p.sc.Publish(p.subject, data); err != nil {
		return errors.Wrapf(err, "publish %s", ev.EventType)
	}
	return nil
}

// OrderCreated announces a newly created order to the processing pipeline.
func (p *Publisher) OrderCreated(_ context.Context, o *order.Order) error {
	return p.publish(NewEnvelope(TypeOrderCreated, map[string]any{
		"orderId":     o.ID,
		"customerId":  o.CustomerID,
		"totalAmount": o.TotalAmount.String(),
		"status":      string(o.Status),
	}))
}

// OrderProcessed announces a terminal PROCESSED transition.
func (p *Publisher) OrderProcessed(_ context.Context, o *order.Order) error {
	return p.publish(NewEnvelope(TypeOrderProcessed, map[string]any{
		"orderId":     o.ID,
		"processedAt": o.UpdatedAt,
	}))
}

// OrderFailed announces a terminal FAILED transition.
func (p *Publisher) OrderFailed(_ context.Context, o *order.Order, reason order.FailureReason, message string) error {
	return p.publish(NewEnvelope(TypeOrderFailed, map[string]any{
		"orderId":  o.ID,
		"reason":   string(reason),
		"failedAt": o.UpdatedAt,
		"message":  message,
	}))
}

// OrderPendingApproval announces a terminal PENDING_APPROVAL transition.
func (p *Publisher) OrderPendingApproval(_ context.Context, o *order.Order) error {
	return p.publish(NewEnvelope(TypeOrderPendingApproval, map[string]any{
		"orderId": o.ID,
		"status":  string(o.Status),
	}))
}

// LowStockAlert announces that a product's stock dropped below the alert
// threshold. Side channel, not a terminal event.
func (p *Publisher) LowStockAlert(_ context.Context, productID string, remaining int) error {
	return p.publish(NewEnvelope(TypeLowStockAlert, map[string]any{
		"productId":      productID,
		"remainingStock": remaining,
	}))
}

// FraudAlert announces a triggered fraud check. Side channel, not a terminal
// event.
func (p *Publisher) FraudAlert(_ context.Context, orderID string, amount decimal.Decimal) error {
	return p.publish(NewEnvelope(TypeFraudAlert, map[string]any{
		"orderId": orderID,
		"amount":  amount.String(),
	}))
}
