package billing

import (
	"github.com/google/uuid"

	"lms-backend/internal/domain/money"
)

type PaymentLegInput struct {
	Source string      `json:"source" binding:"required"`
	Amount money.Money `json:"amount"`
}

type PayInstallmentInput struct {
	StudentProfileID uuid.UUID         `json:"student_profile_id" binding:"required"`
	ClassID          uuid.UUID         `json:"class_id" binding:"required"`
	Month            int               `json:"month" binding:"required"`
	Year             int               `json:"year" binding:"required"`
	Legs             []PaymentLegInput `json:"legs" binding:"required"`
	IdempotencyKey   string            `json:"idempotency_key"`
}

type PaySessionInput struct {
	StudentProfileID uuid.UUID   `json:"student_profile_id" binding:"required"`
	SessionID        uuid.UUID   `json:"session_id" binding:"required"`
	Amount           money.Money `json:"amount"`
	Source           string      `json:"source" binding:"required"`
	IdempotencyKey   string      `json:"idempotency_key"`
}

type CreateChargeInput struct {
	Type             string     `json:"type" binding:"required"`
	StudentProfileID uuid.UUID  `json:"student_profile_id" binding:"required"`
	ClassID          *uuid.UUID `json:"class_id,omitempty"`
	Month            *int       `json:"month,omitempty"`
	Year             *int       `json:"year,omitempty"`
	SessionID        *uuid.UUID `json:"session_id,omitempty"`
}

type RefundInput struct {
	Amount *money.Money `json:"amount,omitempty"`
}
