package wallet

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"lms-backend/database"
	"lms-backend/internal/api/httputil"
	"lms-backend/internal/domain/accounts"
	"lms-backend/internal/domain/money"
	"lms-backend/internal/settlement"
)

type Handler struct {
	svc *settlement.Service
}

func NewHandler(svc *settlement.Service) *Handler {
	return &Handler{svc: svc}
}

type DepositInput struct {
	Amount         money.Money `json:"amount"`
	IdempotencyKey string      `json:"idempotency_key"`
}

// GetBalance returns the caller's wallet balance. A user who never moved
// money simply has a zero wallet, not an error.
func (h *Handler) GetBalance(c *gin.Context) {
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
		c.JSON(http.StatusOK, gin.H{"balance": money.Zero()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wallet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": wallet.Balance, "account_id": wallet.ID})
}

// Deposit tops the caller's wallet up.
func (h *Handler) Deposit(c *gin.Context) {
	userID, ok := c.MustGet("user_id").(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input DepositInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	key := httputil.IdempotencyKey(c, input.IdempotencyKey)
	result, err := h.svc.Deposit(c.Request.Context(), userID, input.Amount, key)
	if err != nil {
		httputil.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
