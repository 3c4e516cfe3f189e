package settlement

import "errors"

// Settlement errors, grouped by how the caller should react. Every error
// aborts the whole attempt; no partial monetary state survives.
var (
	// Validation — rejected before any transaction opens.
	ErrValidation = errors.New("invalid settlement request")

	// Guardrails — transaction aborted, surfaced verbatim.
	ErrLimitExceeded     = errors.New("debit exceeds the max debit limit")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Business-rule conflicts.
	ErrSubscriptionAlreadyExists        = errors.New("subscription charge already exists for this period")
	ErrSessionChargeAlreadyExists       = errors.New("session charge already exists")
	ErrSubscriptionInvalidPaymentSource = errors.New("payment source cannot fund a subscription charge")
	ErrSessionInvalidPaymentSource      = errors.New("session charges can only be paid from a wallet")
	ErrRefundNotAllowed                 = errors.New("payment cannot be refunded")

	// Concurrency — retry later, not immediately.
	ErrSettlementInProgress = errors.New("a settlement with this idempotency key is in progress")
	ErrLockTimeout          = errors.New("timed out waiting for an account lock")
	ErrVersionConflict      = errors.New("account was modified concurrently")

	// Not found.
	ErrAccountNotFound = errors.New("account not found")
	ErrChargeNotFound  = errors.New("charge not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrStudentNotFound = errors.New("student profile not found")
	ErrClassNotFound   = errors.New("class not found")
	ErrSessionNotFound = errors.New("session not found")
)
