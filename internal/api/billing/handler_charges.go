package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lms-backend/database"
	"lms-backend/internal/api/httputil"
	domainbilling "lms-backend/internal/domain/billing"
	"lms-backend/internal/settlement"
)

// CreateCharge bills a student ahead of payment (month ticked over, session
// scheduled). Admin only.
func (h *Handler) CreateCharge(c *gin.Context) {
	var input CreateChargeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	charge, err := h.svc.CreateCharge(c.Request.Context(), settlement.CreateChargeRequest{
		Type:             domainbilling.ChargeType(input.Type),
		StudentProfileID: input.StudentProfileID,
		ClassID:          input.ClassID,
		Month:            input.Month,
		Year:             input.Year,
		SessionID:        input.SessionID,
	})
	if err != nil {
		httputil.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, charge)
}

// CancelCharge voids an unpaid charge. Admin only.
func (h *Handler) CancelCharge(c *gin.Context) {
	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid charge id"})
		return
	}

	charge, err := h.svc.CancelCharge(c.Request.Context(), chargeID)
	if err != nil {
		httputil.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, charge)
}

// ListStudentCharges returns all charges of a student, newest first.
func (h *Handler) ListStudentCharges(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student id"})
		return
	}

	var charges []domainbilling.StudentCharge
	if err := database.DB.
		Where("student_profile_id = ?", studentID).
		Order("created_at DESC").
		Find(&charges).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load charges"})
		return
	}

	c.JSON(http.StatusOK, charges)
}
