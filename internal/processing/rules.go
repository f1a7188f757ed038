package processing

import (
	"context"
	"math/rand/v2"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/order-engine/internal/domain/order"
)

// GlobalRulesConfig holds the order-wide rule thresholds and the trigger
// probabilities of the simulated external payment and fraud systems. The
// probabilities are configuration, not constants.
type GlobalRulesConfig struct {
	HighValueThreshold        decimal.Decimal
	FraudCheckThreshold       decimal.Decimal
	FraudProbability          float64
	PaymentFailureProbability float64
}

// DefaultGlobalRulesConfig returns the stock rule configuration: high value
// above 10,000; fraud check above 20,000 triggering with probability 0.05;
// payment failure with probability 0.02.
func DefaultGlobalRulesConfig() GlobalRulesConfig {
	return GlobalRulesConfig{
		HighValueThreshold:        decimal.NewFromInt(10_000),
		FraudCheckThreshold:       decimal.NewFromInt(20_000),
		FraudProbability:          0.05,
		PaymentFailureProbability: 0.02,
	}
}

// GlobalRules evaluates order-wide rules against the processing context once
// before item-level processing. The randomness source is injectable so tests
// can force both probabilistic branches deterministically.
type GlobalRules struct {
	cfg       GlobalRulesConfig
	random    func() float64
	publisher EventPublisher
}

// NewGlobalRules creates the evaluator. A nil random source defaults to
// math/rand/v2.
func NewGlobalRules(cfg GlobalRulesConfig, publisher EventPublisher, random func() float64) *GlobalRules {
	if random == nil {
		random = rand.Float64
	}
	return &GlobalRules{cfg: cfg, random: random, publisher: publisher}
}

// Apply mutates the context according to the order total. The high-value
// flag is informational only; a fraud alert or payment failure records a
// failure outcome that the orchestrator resolves after the item loop.
func (g *GlobalRules) Apply(ctx context.Context, o *order.Order, pc *Context) {
	total := o.TotalAmount

	if total.GreaterThan(g.cfg.HighValueThreshold) {
		pc.HighValue = true
	}

	if total.GreaterThan(g.cfg.FraudCheckThreshold) && g.random() < g.cfg.FraudProbability {
		pc.FraudAlert = true
		pc.Fail(order.ReasonFraudAlert, "Fraud alert triggered")

		if err := g.publisher.FraudAlert(ctx, o.ID, total); err != nil {
			zctx.From(ctx).Error("Publish fraud alert", zap.String("order_id", o.ID), zap.Error(err))
		}
	}

	if g.random() < g.cfg.PaymentFailureProbability {
		pc.Fail(order.ReasonPaymentFailed, "Payment simulation failed")
	}
}
