package processing

import (
	"context"

	"github.com/xenking/order-engine/internal/domain/order"
	"github.com/xenking/order-engine/internal/ledger"
)

// SubscriptionProcessor handles subscription items: same-order tier
// compatibility first, then slot activation in the subscription ledger.
type SubscriptionProcessor struct {
	subscriptions *ledger.Subscriptions
}

// NewSubscriptionProcessor creates the processor for SUBSCRIPTION items.
func NewSubscriptionProcessor(subs *ledger.Subscriptions) *SubscriptionProcessor {
	return &SubscriptionProcessor{subscriptions: subs}
}

// Process implements ItemProcessor. An Enterprise-tier plan requested
// alongside a Basic/Premium-tier plan in the same order fails before any
// ledger mutation; the ledger independently rejects duplicates, the active
// limit, and cross-order tier conflicts.
func (p *SubscriptionProcessor) Process(_ context.Context, o *order.Order, idx int, pc *Context) error {
	item := &o.Items[idx]

	var hasEnterprise, hasBasicOrPremium bool
	for i := range o.Items {
		if o.Items[i].ProductType != order.TypeSubscription {
			continue
		}
		hasEnterprise = hasEnterprise || ledger.IsEnterpriseTier(o.Items[i].ProductID)
		hasBasicOrPremium = hasBasicOrPremium || ledger.IsBasicOrPremiumTier(o.Items[i].ProductID)
	}
	if hasEnterprise && hasBasicOrPremium {
		pc.Fail(order.ReasonIncompatibleSubscriptions,
			"customer cannot have Enterprise and Basic/Premium subscriptions simultaneously")
		return nil
	}

	return p.subscriptions.Activate(o.CustomerID, item.ProductID)
}
