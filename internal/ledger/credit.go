package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/order-engine/internal/domain/order"
)

// Credit tracks used corporate credit per customer against a fixed limit.
// Unlike the capacity ledgers it counts usage upwards; usage never exceeds
// the limit.
type Credit struct {
	limit     decimal.Decimal
	customers records[decimal.Decimal]
}

// NewCredit returns a credit ledger with the given per-customer limit.
func NewCredit(limit decimal.Decimal) *Credit {
	return &Credit{limit: limit}
}

// Reserve atomically verifies that used + amount stays within the limit and
// records the usage, or returns a CREDIT_LIMIT_EXCEEDED business error
// leaving the ledger untouched.
func (c *Credit) Reserve(customerID string, amount decimal.Decimal) error {
	return c.customers.withKey(customerID, func(used *decimal.Decimal) error {
		if used.Add(amount).GreaterThan(c.limit) {
			return order.NewBusinessError(order.ReasonCreditLimitExceeded,
				"credit limit exceeded for customer %s", customerID)
		}
		*used = used.Add(amount)
		return nil
	})
}

// Used returns the credit currently reserved for a customer.
func (c *Credit) Used(customerID string) decimal.Decimal {
	used := decimal.Zero
	_ = c.customers.withKey(customerID, func(u *decimal.Decimal) error {
		used = *u
		return nil
	})
	return used
}
