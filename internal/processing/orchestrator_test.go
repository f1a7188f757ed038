package processing

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/order-engine/internal/domain/order"
)

func TestOrchestrator_ProcessesPhysicalOrder(t *testing.T) {
	o := newPendingOrder("o1", "cust",
		newItem("BOOK-1", order.TypePhysical, 3, "89.90", nil))
	e := newEngine(t, []*order.Order{o})

	require.NoError(t, e.orch.ProcessOrderCreated(context.Background(), "o1"))

	stored := e.repo.stored("o1")
	assert.Equal(t, order.StatusProcessed, stored.Status)
	assert.True(t, decimal.RequireFromString("269.70").Equal(stored.TotalAmount))
	assert.Empty(t, stored.FailureReason)
	assert.Equal(t, []string{"processed"}, e.publisher.kinds())
	assert.Equal(t, 147, e.stock.Remaining("BOOK-1"))
}

func TestOrchestrator_MixedOrderAllTypes(t *testing.T) {
	o := newPendingOrder("o1", "cust",
		newItem("BOOK-1", order.TypePhysical, 1, "89.90", nil),
		newItem("SUB-BASIC-1", order.TypeSubscription, 1, "29.90", nil),
		newItem("EBOOK-1", order.TypeDigital, 1, "49.90", nil),
		newItem("GAME-1", order.TypePreOrder, 1, "60.00", nil),
		newItem("CHAIR-1", order.TypeCorporate, 1, "899.00",
			order.Metadata{"cnpj": "12.345.678/0001-90"}))
	e := newEngine(t, []*order.Order{o})

	require.NoError(t, e.orch.ProcessOrderCreated(context.Background(), "o1"))

	stored := e.repo.stored("o1")
	assert.Equal(t, order.StatusProcessed, stored.Status)
	assert.Equal(t, 1, e.subs.ActiveCount("cust"))
	assert.True(t, e.licenses.Owns("cust", "EBOOK-1"))
	assert.Equal(t, 1, e.preOrders.Reserved("GAME-1"))
	assert.True(t, decimal.RequireFromString("899.00").Equal(e.credit.Used("cust")))
}

func TestOrchestrator_BusinessFailure(t *testing.T) {
	o := newPendingOrder("o1", "cust",
		newItem("BOOK-LOW", order.TypePhysical, 10, "10.00", nil))
	e := newEngine(t, []*order.Order{o})

	require.NoError(t, e.orch.ProcessOrderCreated(context.Background(), "o1"))

	stored := e.repo.stored("o1")
	assert.Equal(t, order.StatusFailed, stored.Status)
	assert.Equal(t, order.ReasonOutOfStock, stored.FailureReason)
	assert.NotEmpty(t, stored.FailureMessage)
	assert.Equal(t, []string{"failed"}, e.publisher.kinds())
}

func TestOrchestrator_FailureAbortsRemainingItems(t *testing.T) {
	o := newPendingOrder("o1", "cust",
		newItem("BOOK-LOW", order.TypePhysical, 10, "10.00", nil),
		newItem("EBOOK-1", order.TypeDigital, 1, "49.90", nil))
	e := newEngine(t, []*order.Order{o})

	require.NoError(t, e.orch.ProcessOrderCreated(context.Background(), "o1"))

	stored := e.repo.stored("o1")
	assert.Equal(t, order.StatusFailed, stored.Status)
	// The digital item after the failing one was never processed.
	assert.False(t, e.licenses.Owns("cust", "EBOOK-1"))
}

func TestOrchestrator_UnsupportedProductType(t *testing.T) {
	o := newPendingOrder("o1", "cust",
		newItem("WEIRD-1", "HOLOGRAM", 1, "10.00", nil))
	e := newEngine(t, []*order.Order{o})

	require.NoError(t, e.orch.ProcessOrderCreated(context.Background(), "o1"))

	stored := e.repo.stored("o1")
	assert.Equal(t, order.StatusFailed, stored.Status)
	assert.Equal(t, order.ReasonInvalidRequest, stored.FailureReason)
}

func TestOrchestrator_PendingApproval(t *testing.T) {
	o := newPendingOrder("o1", "acme",
		newItem("CHAIR-1", order.TypeCorporate, 70,
			"899.00", order.Metadata{"cnpj": "12.345.678/0001-90"}))
	e := newEngine(t, []*order.Order{o})

	// 70 × 899.00 = 62930.00: above the approval threshold, within credit.
	require.NoError(t, e.orch.ProcessOrderCreated(context.Background(), "o1"))

	stored := e.repo.stored("o1")
	assert.Equal(t, order.StatusPendingApproval, stored.Status)
	assert.Equal(t, order.ReasonPendingManualApproval, stored.FailureReason)
	assert.Equal(t, []string{"pending_approval"}, e.publisher.kinds())
}

func TestOrchestrator_PendingApprovalDominatesLaterFailure(t *testing.T) {
	// The corporate item flags approval; the following item fails. The
	// approval outcome wins.
	o := newPendingOrder("o1", "acme",
		newItem("CHAIR-1", order.TypeCorporate, 70,
			"899.00", order.Metadata{"cnpj": "12.345.678/0001-90"}),
		newItem("BOOK-LOW", order.TypePhysical, 10, "10.00", nil))
	e := newEngine(t, []*order.Order{o})

	require.NoError(t, e.orch.ProcessOrderCreated(context.Background(), "o1"))

	stored := e.repo.stored("o1")
	assert.Equal(t, order.StatusPendingApproval, stored.Status)
	assert.Equal(t, []string{"pending_approval"}, e.publisher.kinds())
}

func TestOrchestrator_IncompatibleSubscriptionsInOneOrder(t *testing.T) {
	o := newPendingOrder("o1", "cust",
		newItem("SUB-ENTERPRISE-1", order.TypeSubscription, 1, "299.90", nil),
		newItem("SUB-BASIC-1", order.TypeSubscription, 1, "29.90", nil))
	e := newEngine(t, []*order.Order{o})

	require.NoError(t, e.orch.ProcessOrderCreated(context.Background(), "o1"))

	stored := e.repo.stored("o1")
	assert.Equal(t, order.StatusFailed, stored.Status)
	assert.Equal(t, order.ReasonIncompatibleSubscriptions, stored.FailureReason)
	// Neither plan was activated.
	assert.Equal(t, 0, e.subs.ActiveCount("cust"))
}

func TestOrchestrator_FraudAlertFailsOrder(t *testing.T) {
	o := newPendingOrder("o1", "cust",
		newItem("LAPTOP-1", order.TypePhysical, 2, "13000.00", nil))
	e := newEngine(t, []*order.Order{o}, withRandom(0.01, 1.0))

	require.NoError(t, e.orch.ProcessOrderCreated(context.Background(), "o1"))

	stored := e.repo.stored("o1")
	assert.Equal(t, order.StatusFailed, stored.Status)
	assert.Equal(t, order.ReasonFraudAlert, stored.FailureReason)
	assert.Equal(t, []string{"fraud", "failed"}, e.publisher.kinds())
}

func TestOrchestrator_PaymentFailure(t *testing.T) {
	o := newPendingOrder("o1", "cust",
		newItem("BOOK-1", order.TypePhysical, 1, "89.90", nil))
	e := newEngine(t, []*order.Order{o}, withRandom(0.001))

	require.NoError(t, e.orch.ProcessOrderCreated(context.Background(), "o1"))

	stored := e.repo.stored("o1")
	assert.Equal(t, order.StatusFailed, stored.Status)
	assert.Equal(t, order.ReasonPaymentFailed, stored.FailureReason)
}

func TestOrchestrator_RedeliveryOfTerminalOrderIsNoop(t *testing.T) {
	o := newPendingOrder("o1", "cust",
		newItem("BOOK-1", order.TypePhysical, 3, "89.90", nil))
	e := newEngine(t, []*order.Order{o})

	require.NoError(t, e.orch.ProcessOrderCreated(context.Background(), "o1"))
	require.NoError(t, e.orch.ProcessOrderCreated(context.Background(), "o1"))

	// Stock was only reserved once, and only one terminal event went out.
	assert.Equal(t, 147, e.stock.Remaining("BOOK-1"))
	assert.Equal(t, []string{"processed"}, e.publisher.kinds())
	assert.Equal(t, 1, e.repo.updates)
}

func TestOrchestrator_LoadErrorIsRetryable(t *testing.T) {
	e := newEngine(t, nil)
	e.repo.getErr = errors.New("connection reset")

	err := e.orch.ProcessOrderCreated(context.Background(), "o1")
	require.Error(t, err)
}

func TestOrchestrator_SaveErrorIsRetryable(t *testing.T) {
	o := newPendingOrder("o1", "cust",
		newItem("BOOK-1", order.TypePhysical, 1, "89.90", nil))
	e := newEngine(t, []*order.Order{o})
	e.repo.updateErr = errors.New("connection reset")

	err := e.orch.ProcessOrderCreated(context.Background(), "o1")
	require.Error(t, err)
	// No terminal event when the status could not be persisted.
	assert.Empty(t, e.publisher.kinds())
}

func TestResolveFailure_UnknownBusinessCodeFallsBack(t *testing.T) {
	reason, _ := resolveFailure(order.NewBusinessError("SOMETHING_NEW", "boom"))
	assert.Equal(t, order.ReasonInvalidRequest, reason)
}

func TestResolveFailure_NonBusinessError(t *testing.T) {
	reason, message := resolveFailure(errors.New("nil pointer somewhere"))
	assert.Equal(t, order.ReasonPaymentFailed, reason)
	assert.Equal(t, "unexpected processing error", message)
}
