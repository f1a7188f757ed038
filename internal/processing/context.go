// Package processing implements the order-processing rule engine: the
// per-product-type item processors, the shared processing context, the
// global order rules, and the orchestrator that drives a pending order to a
// terminal status.
package processing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/order-engine/internal/domain/order"
)

// Context is the ephemeral cross-item signaling object for one orchestration
// run. Processors read and write it; it is the only channel for an item
// processor to flag an order-wide outcome without knowing about status
// transitions. It is never persisted.
type Context struct {
	HighValue       bool
	FraudAlert      bool
	PendingApproval bool
	FailureReason   order.FailureReason
	FailureMessage  string

	// TotalAmount mirrors the order total as seen by the global rules,
	// before any item-level price adjustment.
	TotalAmount decimal.Decimal
}

// Fail records a failure outcome. The orchestrator resolves it to a FAILED
// status after the item loop unless pending approval takes precedence.
func (c *Context) Fail(reason order.FailureReason, message string) {
	c.FailureReason = reason
	c.FailureMessage = message
}

// Failed reports whether a failure outcome has been recorded.
func (c *Context) Failed() bool {
	return c.FailureReason != ""
}
