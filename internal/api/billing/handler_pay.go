package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lms-backend/internal/api/httputil"
	"lms-backend/internal/settlement"
)

// PayInstallment settles (part of) a monthly subscription charge, optionally
// split across wallet and cash.
func (h *Handler) PayInstallment(c *gin.Context) {
	var input PayInstallmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	legs := make([]settlement.PaymentLeg, 0, len(input.Legs))
	for _, leg := range input.Legs {
		legs = append(legs, settlement.PaymentLeg{
			Source: settlement.PaymentSource(leg.Source),
			Amount: leg.Amount,
		})
	}

	result, err := h.svc.PayInstallment(c.Request.Context(), settlement.PayInstallmentRequest{
		StudentProfileID: input.StudentProfileID,
		ClassID:          input.ClassID,
		Month:            input.Month,
		Year:             input.Year,
		Legs:             legs,
		IdempotencyKey:   httputil.IdempotencyKey(c, input.IdempotencyKey),
	})
	if err != nil {
		httputil.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PaySession settles a single-session charge from the wallet.
func (h *Handler) PaySession(c *gin.Context) {
	var input PaySessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.svc.PaySession(c.Request.Context(), settlement.PaySessionRequest{
		StudentProfileID: input.StudentProfileID,
		SessionID:        input.SessionID,
		Amount:           input.Amount,
		Source:           settlement.PaymentSource(input.Source),
		IdempotencyKey:   httputil.IdempotencyKey(c, input.IdempotencyKey),
	})
	if err != nil {
		httputil.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
