// Package httputil maps billing engine errors onto HTTP responses so every
// handler replies with the same shape: {"error": ..., "code": ...}.
package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lms-backend/internal/domain/billing"
	"lms-backend/internal/settings"
	"lms-backend/internal/settlement"
)

type mapping struct {
	err    error
	status int
	code   string
}

// Order matters: wrapped sentinels are checked top to bottom.
var mappings = []mapping{
	{settlement.ErrLimitExceeded, http.StatusUnprocessableEntity, "LIMIT_EXCEEDED"},
	{settlement.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
	{settlement.ErrRefundNotAllowed, http.StatusUnprocessableEntity, "REFUND_NOT_ALLOWED"},
	{settlement.ErrSubscriptionInvalidPaymentSource, http.StatusUnprocessableEntity, "INVALID_PAYMENT_SOURCE"},
	{settlement.ErrSessionInvalidPaymentSource, http.StatusUnprocessableEntity, "INVALID_PAYMENT_SOURCE"},
	{settlement.ErrValidation, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
	{settings.ErrInvalidSetting, http.StatusUnprocessableEntity, "INVALID_SETTING"},
	{billing.ErrChargeNotPayable, http.StatusUnprocessableEntity, "CHARGE_NOT_PAYABLE"},
	{billing.ErrChargeNotCancellable, http.StatusUnprocessableEntity, "CHARGE_NOT_CANCELLABLE"},

	{settlement.ErrSubscriptionAlreadyExists, http.StatusConflict, "SUBSCRIPTION_CHARGE_EXISTS"},
	{settlement.ErrSessionChargeAlreadyExists, http.StatusConflict, "SESSION_CHARGE_EXISTS"},
	{settlement.ErrSettlementInProgress, http.StatusConflict, "SETTLEMENT_IN_PROGRESS"},
	{settlement.ErrLockTimeout, http.StatusConflict, "CONCURRENT_UPDATE"},
	{settlement.ErrVersionConflict, http.StatusConflict, "CONCURRENT_UPDATE"},

	{settlement.ErrAccountNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
	{settlement.ErrChargeNotFound, http.StatusNotFound, "CHARGE_NOT_FOUND"},
	{settlement.ErrPaymentNotFound, http.StatusNotFound, "PAYMENT_NOT_FOUND"},
	{settlement.ErrStudentNotFound, http.StatusNotFound, "STUDENT_NOT_FOUND"},
	{settlement.ErrClassNotFound, http.StatusNotFound, "CLASS_NOT_FOUND"},
	{settlement.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
}

// Error writes the HTTP response for err and aborts the request.
func Error(c *gin.Context, err error) {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": err.Error(), "code": m.code})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "INTERNAL"})
}
