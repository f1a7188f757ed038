package ledger

import (
	"strings"

	"github.com/xenking/order-engine/internal/domain/order"
)

// DefaultMaxActiveSubscriptions is the number of simultaneous active
// subscriptions allowed per customer.
const DefaultMaxActiveSubscriptions = 5

// Subscription tier prefixes. Enterprise-tier plans are incompatible with
// Basic/Premium-tier plans for the same customer.
const (
	enterprisePrefix = "SUB-ENTERPRISE"
	basicPrefix      = "SUB-BASIC"
	premiumPrefix    = "SUB-PREMIUM"
)

// IsEnterpriseTier reports whether the product id names an Enterprise-tier
// subscription plan.
func IsEnterpriseTier(productID string) bool {
	return strings.HasPrefix(productID, enterprisePrefix)
}

// IsBasicOrPremiumTier reports whether the product id names a Basic- or
// Premium-tier subscription plan.
func IsBasicOrPremiumTier(productID string) bool {
	return strings.HasPrefix(productID, basicPrefix) || strings.HasPrefix(productID, premiumPrefix)
}

// Subscriptions tracks active subscription slots per customer. Usage grows
// upwards until the per-customer limit.
type Subscriptions struct {
	maxActive int
	customers records[map[string]struct{}]
}

// NewSubscriptions returns a subscription ledger with the given per-customer
// active limit; zero or negative means DefaultMaxActiveSubscriptions.
func NewSubscriptions(maxActive int) *Subscriptions {
	if maxActive <= 0 {
		maxActive = DefaultMaxActiveSubscriptions
	}
	return &Subscriptions{maxActive: maxActive}
}

// Activate atomically validates and records an active subscription for the
// customer. It fails with DUPLICATE_ACTIVE_SUBSCRIPTION for a product the
// customer already subscribes to, SUBSCRIPTION_LIMIT_EXCEEDED when the
// active limit is reached, or INCOMPATIBLE_SUBSCRIPTIONS when the new plan's
// tier conflicts with an already-active plan. Failures leave the ledger
// untouched.
func (s *Subscriptions) Activate(customerID, productID string) error {
	return s.customers.withKey(customerID, func(active *map[string]struct{}) error {
		if *active == nil {
			*active = make(map[string]struct{})
		}
		if _, ok := (*active)[productID]; ok {
			return order.NewBusinessError(order.ReasonDuplicateActiveSubscription,
				"customer %s already has active subscription for %s", customerID, productID)
		}
		if len(*active) >= s.maxActive {
			return order.NewBusinessError(order.ReasonSubscriptionLimitExceeded,
				"customer %s reached the maximum number of active subscriptions (%d)", customerID, s.maxActive)
		}

		var hasEnterprise, hasBasicOrPremium bool
		for p := range *active {
			hasEnterprise = hasEnterprise || IsEnterpriseTier(p)
			hasBasicOrPremium = hasBasicOrPremium || IsBasicOrPremiumTier(p)
		}
		if (IsEnterpriseTier(productID) && hasBasicOrPremium) ||
			(IsBasicOrPremiumTier(productID) && hasEnterprise) {
			return order.NewBusinessError(order.ReasonIncompatibleSubscriptions,
				"incompatible subscription plans for customer %s", customerID)
		}

		(*active)[productID] = struct{}{}
		return nil
	})
}

// ActiveCount returns the number of active subscriptions for a customer.
func (s *Subscriptions) ActiveCount(customerID string) int {
	n := 0
	_ = s.customers.withKey(customerID, func(active *map[string]struct{}) error {
		n = len(*active)
		return nil
	})
	return n
}
