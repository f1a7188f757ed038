package processing

import (
	"context"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/xenking/order-engine/internal/domain/order"
	"github.com/xenking/order-engine/internal/ledger"
)

const (
	metaCNPJ           = "cnpj"
	metaPaymentTerms   = "paymentTerms"
	metaPaymentDueDays = "paymentDueDays"

	// bulkQuantityThreshold is the quantity above which the flat bulk
	// discount applies.
	bulkQuantityThreshold = 100
)

// cnpjPattern matches a formatted Brazilian corporate tax id
// (XX.XXX.XXX/XXXX-XX).
var cnpjPattern = regexp.MustCompile(`^\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}$`)

// bulkDiscountRate is the flat 15% discount over the bulk threshold.
var bulkDiscountRate = decimal.RequireFromString("0.15")

// DefaultApprovalThreshold is the order total above which corporate orders
// require manual approval.
var DefaultApprovalThreshold = decimal.NewFromInt(50_000)

// CorporateProcessor handles corporate items: tax id validation, payment
// terms annotation, bulk discount, credit reservation, and the manual
// approval threshold.
type CorporateProcessor struct {
	credit            *ledger.Credit
	approvalThreshold decimal.Decimal
}

// NewCorporateProcessor creates the processor for CORPORATE items. A zero
// approval threshold defaults to DefaultApprovalThreshold.
func NewCorporateProcessor(credit *ledger.Credit, approvalThreshold decimal.Decimal) *CorporateProcessor {
	if approvalThreshold.IsZero() {
		approvalThreshold = DefaultApprovalThreshold
	}
	return &CorporateProcessor{credit: credit, approvalThreshold: approvalThreshold}
}

// Process implements ItemProcessor. Purely local validations run before any
// ledger mutation; the credit reservation is the single mutating step. When
// the order running total exceeds the approval threshold the context is
// flagged for manual approval, which takes precedence over a plain failure.
func (p *CorporateProcessor) Process(_ context.Context, o *order.Order, idx int, pc *Context) error {
	item := &o.Items[idx]

	if !item.Metadata.Has(metaCNPJ) {
		return order.NewBusinessError(order.ReasonInvalidCorporateData,
			"CNPJ is required for corporate orders")
	}
	cnpj := item.Metadata.String(metaCNPJ)
	if !cnpjPattern.MatchString(cnpj) {
		return order.NewBusinessError(order.ReasonInvalidCorporateData,
			"invalid CNPJ format: %s", cnpj)
	}

	if item.Metadata.Has(metaPaymentTerms) {
		days := 30
		switch item.Metadata.String(metaPaymentTerms) {
		case "NET_60":
			days = 60
		case "NET_90":
			days = 90
		}
		item.Metadata[metaPaymentDueDays] = days
	}

	if item.Quantity > bulkQuantityThreshold {
		discount := item.TotalPrice.Mul(bulkDiscountRate)
		o.ApplyItemDiscount(idx, discount)
	}

	if err := p.credit.Reserve(o.CustomerID, item.TotalPrice); err != nil {
		return err
	}

	if o.TotalAmount.GreaterThan(p.approvalThreshold) {
		pc.PendingApproval = true
		pc.Fail(order.ReasonPendingManualApproval,
			"corporate orders above "+p.approvalThreshold.String()+" require manual approval")
	}

	return nil
}
