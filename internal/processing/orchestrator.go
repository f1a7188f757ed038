package processing

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/order-engine/internal/domain/order"
	"github.com/xenking/order-engine/internal/metrics"
)

// Orchestrator drives a pending order through the processing state machine:
// global rules, then every item processor in item order, then resolution of
// the aggregated context into exactly one terminal status, persisted and
// announced with exactly one terminal event.
type Orchestrator struct {
	orders    order.Repository
	registry  *Registry
	rules     *GlobalRules
	publisher EventPublisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

// NewOrchestrator wires the orchestrator. A nil tracer disables tracing.
func NewOrchestrator(
	orders order.Repository,
	registry *Registry,
	rules *GlobalRules,
	publisher EventPublisher,
	m *metrics.Metrics,
	tracer trace.Tracer,
) *Orchestrator {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return &Orchestrator{
		orders:    orders,
		registry:  registry,
		rules:     rules,
		publisher: publisher,
		metrics:   m,
		tracer:    tracer,
		now:       time.Now,
	}
}

// ProcessOrderCreated processes one order-created notification as a single
// synchronous unit of work. Re-invocation for an order no longer PENDING is
// a no-op, so at-least-once delivery of the triggering event is safe. A
// returned error means the order could not be loaded or saved and the
// delivery should be retried; every other outcome leaves the order in a
// terminal status.
func (p *Orchestrator) ProcessOrderCreated(ctx context.Context, orderID string) error {
	ctx, span := p.tracer.Start(ctx, "order.process",
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	lg := zctx.From(ctx).With(zap.String("order_id", orderID))

	o, err := p.orders.Get(ctx, orderID)
	if err != nil {
		return errors.Wrapf(err, "load order %s", orderID)
	}

	if o.Status.Terminal() {
		lg.Info("Order already processed", zap.String("status", string(o.Status)))
		return nil
	}

	pc := &Context{TotalAmount: o.TotalAmount}
	p.rules.Apply(ctx, o, pc)

	procErr := p.processItems(ctx, o, pc)

	switch {
	case pc.PendingApproval:
		// Pending approval dominates any failure detected in the same
		// pass, including a business error raised by a later item.
		o.MarkPendingApproval(pc.FailureMessage, p.now())
		if err := p.orders.Update(ctx, o); err != nil {
			return errors.Wrap(err, "save order")
		}
		lg.Info("Order pending approval")
		p.metrics.OrderPendingApproval(ctx)
		if err := p.publisher.OrderPendingApproval(ctx, o); err != nil {
			lg.Error("Publish pending approval event", zap.Error(err))
		}
		return nil

	case procErr != nil:
		reason, message := resolveFailure(procErr)
		if !isBusiness(procErr) {
			lg.Error("Unexpected error while processing order", zap.Error(procErr))
		} else {
			lg.Warn("Business error while processing order",
				zap.String("reason", string(reason)), zap.String("message", message))
		}
		return p.fail(ctx, o, reason, message)

	case pc.Failed():
		lg.Warn("Order failed by global rules or processing context",
			zap.String("reason", string(pc.FailureReason)))
		return p.fail(ctx, o, pc.FailureReason, pc.FailureMessage)

	default:
		o.MarkProcessed(p.now())
		if err := p.orders.Update(ctx, o); err != nil {
			return errors.Wrap(err, "save order")
		}
		lg.Info("Order processed", zap.String("total", o.TotalAmount.String()))
		p.metrics.OrderProcessed(ctx, o)
		if err := p.publisher.OrderProcessed(ctx, o); err != nil {
			lg.Error("Publish processed event", zap.Error(err))
		}
		return nil
	}
}

// processItems dispatches every item to its registered processor in item
// order. The first error aborts the remaining items.
func (p *Orchestrator) processItems(ctx context.Context, o *order.Order, pc *Context) error {
	for idx := range o.Items {
		t := o.Items[idx].ProductType
		proc, ok := p.registry.Get(t)
		if !ok {
			return order.NewBusinessError("UNSUPPORTED_TYPE", "unsupported product type %s", t)
		}
		if err := proc.Process(ctx, o, idx, pc); err != nil {
			return err
		}
	}
	return nil
}

func (p *Orchestrator) fail(ctx context.Context, o *order.Order, reason order.FailureReason, message string) error {
	o.MarkFailed(reason, message, p.now())
	if err := p.orders.Update(ctx, o); err != nil {
		return errors.Wrap(err, "save order")
	}
	p.metrics.OrderFailed(ctx, reason)
	if err := p.publisher.OrderFailed(ctx, o, reason, message); err != nil {
		zctx.From(ctx).Error("Publish failed event",
			zap.String("order_id", o.ID), zap.Error(err))
	}
	return nil
}

// resolveFailure maps a processing error to a failure reason and message. A
// business error keeps its code when recognized, falling back to
// INVALID_REQUEST; anything else maps to a generic payment failure so no
// order is left non-terminal.
func resolveFailure(err error) (order.FailureReason, string) {
	var be *order.BusinessError
	if errors.As(err, &be) {
		return order.ParseFailureReason(string(be.Code)), be.Message
	}
	return order.ReasonPaymentFailed, "unexpected processing error"
}

func isBusiness(err error) bool {
	var be *order.BusinessError
	return errors.As(err, &be)
}
