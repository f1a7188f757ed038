package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/sdk/zctx"
	stan "github.com/nats-io/stan.go"
	"go.uber.org/zap"
)

// OrderProcessor is the processing entry point the consumer drives. It must
// tolerate at-least-once delivery.
type OrderProcessor interface {
	ProcessOrderCreated(ctx context.Context, orderID string) error
}

// ConsumerConfig holds the durable queue subscription parameters.
type ConsumerConfig struct {
	Subject    string
	QueueGroup string
	Durable    string
	AckWait    time.Duration
	// HandleTimeout bounds the processing of a single delivery.
	HandleTimeout time.Duration
}

// Consumer subscribes to the order event subject and feeds ORDER_CREATED
// events into the processor. Messages are acked manually: a processing error
// leaves the message unacked so the server re-delivers it, and the
// orchestrator's idempotency guard makes the retry safe.
type Consumer struct {
	sc        stan.Conn
	cfg       ConsumerConfig
	processor OrderProcessor
	lg        *zap.Logger
}

// NewConsumer creates a Consumer on the given connection.
func NewConsumer(sc stan.Conn, cfg ConsumerConfig, processor OrderProcessor, lg *zap.Logger) *Consumer {
	if cfg.AckWait <= 0 {
		cfg.AckWait = 30 * time.Second
	}
	if cfg.HandleTimeout <= 0 {
		cfg.HandleTimeout = 25 * time.Second
	}
	return &Consumer{sc: sc, cfg: cfg, processor: processor, lg: lg}
}

// Subscribe registers the durable queue subscription and returns. The
// subscription stays active until the context is cancelled.
func (c *Consumer) Subscribe(ctx context.Context) error {
	sub, err := c.sc.QueueSubscribe(c.cfg.Subject, c.cfg.QueueGroup, c.handle,
		stan.DurableName(c.cfg.Durable),
		stan.SetManualAckMode(),
		stan.AckWait(c.cfg.AckWait),
		stan.DeliverAllAvailable(),
	)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		if err := sub.Close(); err != nil {
			c.lg.Warn("Close subscription", zap.Error(err))
		}
	}()
	return nil
}

// handle runs on the subscription's dispatch goroutine. Each delivery gets
// its own bounded context so a slow order cannot stall unrelated shutdown.
func (c *Consumer) handle(m *stan.Msg) {
	hCtx, cancel := context.WithTimeout(zctx.Base(context.Background(), c.lg), c.cfg.HandleTimeout)
	defer cancel()

	var ev Envelope
	if err := json.Unmarshal(m.Data, &ev); err != nil {
		// Malformed payloads never become processable; ack to drop.
		c.lg.Error("Malformed event payload", zap.Error(err))
		c.ack(m)
		return
	}

	if ev.EventType != TypeOrderCreated {
		c.ack(m)
		return
	}

	orderID := ev.OrderID()
	if orderID == "" {
		c.lg.Error("ORDER_CREATED event without orderId", zap.String("event_id", ev.EventID))
		c.ack(m)
		return
	}

	if err := c.processor.ProcessOrderCreated(hCtx, orderID); err != nil {
		// No ack: the server re-delivers and the idempotency guard
		// handles duplicates.
		c.lg.Error("Process order created",
			zap.String("order_id", orderID), zap.Error(err))
		return
	}
	c.ack(m)
}

func (c *Consumer) ack(m *stan.Msg) {
	if err := m.Ack(); err != nil {
		c.lg.Warn("Ack failed", zap.Error(err))
	}
}
