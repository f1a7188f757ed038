package order

import "fmt"

// FailureReason is the closed set of reasons an order can fail or require
// special handling, grouped by the product type that raises them.
type FailureReason string

const (
	// PHYSICAL
	ReasonOutOfStock           FailureReason = "OUT_OF_STOCK"
	ReasonWarehouseUnavailable FailureReason = "WAREHOUSE_UNAVAILABLE"

	// SUBSCRIPTION
	ReasonSubscriptionLimitExceeded   FailureReason = "SUBSCRIPTION_LIMIT_EXCEEDED"
	ReasonDuplicateActiveSubscription FailureReason = "DUPLICATE_ACTIVE_SUBSCRIPTION"
	ReasonIncompatibleSubscriptions   FailureReason = "INCOMPATIBLE_SUBSCRIPTIONS"

	// DIGITAL
	ReasonLicenseUnavailable FailureReason = "LICENSE_UNAVAILABLE"
	ReasonAlreadyOwned       FailureReason = "ALREADY_OWNED"

	// PRE_ORDER
	ReasonPreOrderSoldOut    FailureReason = "PRE_ORDER_SOLD_OUT"
	ReasonReleaseDatePassed  FailureReason = "RELEASE_DATE_PASSED"
	ReasonInvalidReleaseDate FailureReason = "INVALID_RELEASE_DATE"

	// CORPORATE
	ReasonCreditLimitExceeded   FailureReason = "CREDIT_LIMIT_EXCEEDED"
	ReasonInvalidCorporateData  FailureReason = "INVALID_CORPORATE_DATA"
	ReasonPendingManualApproval FailureReason = "PENDING_MANUAL_APPROVAL"

	// GLOBAL
	ReasonPaymentFailed  FailureReason = "PAYMENT_FAILED"
	ReasonFraudAlert     FailureReason = "FRAUD_ALERT"
	ReasonInvalidRequest FailureReason = "INVALID_REQUEST"
)

// knownReasons is the set of valid failure reason codes. Used when mapping a
// business error code back to a FailureReason.
var knownReasons = map[FailureReason]struct{}{
	ReasonOutOfStock:                  {},
	ReasonWarehouseUnavailable:        {},
	ReasonSubscriptionLimitExceeded:   {},
	ReasonDuplicateActiveSubscription: {},
	ReasonIncompatibleSubscriptions:   {},
	ReasonLicenseUnavailable:          {},
	ReasonAlreadyOwned:                {},
	ReasonPreOrderSoldOut:             {},
	ReasonReleaseDatePassed:           {},
	ReasonInvalidReleaseDate:          {},
	ReasonCreditLimitExceeded:         {},
	ReasonInvalidCorporateData:        {},
	ReasonPendingManualApproval:       {},
	ReasonPaymentFailed:               {},
	ReasonFraudAlert:                  {},
	ReasonInvalidRequest:              {},
}

// ParseFailureReason maps a reason code to a FailureReason, falling back to
// INVALID_REQUEST for unrecognized codes.
func ParseFailureReason(code string) FailureReason {
	r := FailureReason(code)
	if _, ok := knownReasons[r]; ok {
		return r
	}
	return ReasonInvalidRequest
}

// BusinessError is a business-rule violation raised during order processing.
// It carries a reason code that the orchestrator maps to a terminal FAILED
// status. Processors and ledgers raise it; nothing retries it.
type BusinessError struct {
	Code    FailureReason
	Message string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBusinessError creates a BusinessError with a formatted message.
func NewBusinessError(code FailureReason, format string, args ...any) *BusinessError {
	return &BusinessError{Code: code, Message: fmt.Sprintf(format, args...)}
}
