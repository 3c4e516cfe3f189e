package catalog

import (
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/domain/money"
)

type CreateBranchInput struct {
	Name string `json:"name" binding:"required"`
}

type CreateClassInput struct {
	BranchID   uuid.UUID   `json:"branch_id" binding:"required"`
	Name       string      `json:"name" binding:"required"`
	MonthlyFee money.Money `json:"monthly_fee"`
}

type CreateSessionInput struct {
	StartsAt time.Time   `json:"starts_at" binding:"required"`
	Price    money.Money `json:"price"`
}

type CreateStudentInput struct {
	GuardianUserID uuid.UUID `json:"guardian_user_id" binding:"required"`
	BranchID       uuid.UUID `json:"branch_id" binding:"required"`
	Name           string    `json:"name" binding:"required"`
}
