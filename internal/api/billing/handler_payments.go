package billing

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"lms-backend/database"
	"lms-backend/internal/api/httputil"
	"lms-backend/internal/domain/accounts"
	domainbilling "lms-backend/internal/domain/billing"
)

// GetPaymentHistory lists every movement touching the caller's wallet,
// newest first.
func (h *Handler) GetPaymentHistory(c *gin.Context) {
	userID, ok := c.MustGet("user_id").(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var wallet accounts.Account
	err := database.DB.
		Where("owner_id = ? AND owner_type = ?", userID, accounts.OwnerUser).
		First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, []domainbilling.Payment{})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	var payments []domainbilling.Payment
	if err := database.DB.
		Where("sender_id = ? OR receiver_id = ?", wallet.ID, wallet.ID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	c.JSON(http.StatusOK, payments)
}

// ListAllPayments returns the full payment journal. Admin only.
func (h *Handler) ListAllPayments(c *gin.Context) {
	var payments []domainbilling.Payment
	if err := database.DB.Order("created_at DESC").Limit(500).Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	c.JSON(http.StatusOK, payments)
}

// Refund reverses a completed payment leg, fully unless a partial amount is
// given. Admin only.
func (h *Handler) Refund(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment id"})
		return
	}

	// An empty body means a full refund.
	var input RefundInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	refund, err := h.svc.Refund(c.Request.Context(), paymentID, input.Amount)
	if err != nil {
		httputil.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, refund)
}
