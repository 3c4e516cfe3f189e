package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/domain/money"
)

type ChargeType string

const (
	ChargeSubscription ChargeType = "SUBSCRIPTION"
	ChargeSession      ChargeType = "SESSION"
)

type ChargeStatus string

const (
	ChargePending     ChargeStatus = "PENDING"
	ChargeInstallment ChargeStatus = "INSTALLMENT"
	ChargeCompleted   ChargeStatus = "COMPLETED"
	ChargeRefunded    ChargeStatus = "REFUNDED"
	ChargeCancelled   ChargeStatus = "CANCELLED"
)

var (
	ErrExceedsOutstanding = errors.New("amount exceeds outstanding balance")
	ErrExceedsPaid        = errors.New("refund exceeds amount paid")
	ErrChargeNotPayable   = errors.New("charge can no longer be paid")
	ErrChargeNotCancellable = errors.New("charge with payments cannot be cancelled")
)

// StudentCharge tracks what a student owes for a class month (subscription)
// or a single session, and how much of it has been paid so far.
// Subscriptions target (class, month, year); sessions target a session id.
type StudentCharge struct {
	ID               uuid.UUID    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	StudentProfileID uuid.UUID    `json:"student_profile_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_charges_subscription,priority:1;uniqueIndex:idx_charges_session,priority:1"`
	Type             ChargeType   `json:"type" gorm:"type:varchar(20);not null"`
	ClassID          *uuid.UUID   `json:"class_id,omitempty" gorm:"type:uuid;uniqueIndex:idx_charges_subscription,priority:2"`
	Month            *int         `json:"month,omitempty" gorm:"uniqueIndex:idx_charges_subscription,priority:3"`
	Year             *int         `json:"year,omitempty" gorm:"uniqueIndex:idx_charges_subscription,priority:4"`
	SessionID        *uuid.UUID   `json:"session_id,omitempty" gorm:"type:uuid;uniqueIndex:idx_charges_session,priority:2"`
	AmountOwed       money.Money  `json:"amount_owed" gorm:"not null"`
	AmountPaid       money.Money  `json:"amount_paid" gorm:"not null"`
	Status           ChargeStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// StatusFor derives the charge status from the paid-vs-owed position.
// Cancel and refund are explicit transitions, not derivable from amounts.
func StatusFor(paid, owed money.Money) ChargeStatus {
	switch {
	case paid.IsZero():
		return ChargePending
	case paid.LessThan(owed):
		return ChargeInstallment
	default:
		return ChargeCompleted
	}
}

// Outstanding returns how much is still owed.
func (c *StudentCharge) Outstanding() money.Money {
	return c.AmountOwed.Sub(c.AmountPaid)
}

// ApplyPayment records amount against the charge and recomputes the status.
// Paying more than the outstanding balance is rejected; amount_paid never
// exceeds amount_owed outside a refund.
func (c *StudentCharge) ApplyPayment(amount money.Money) error {
	switch c.Status {
	case ChargePending, ChargeInstallment:
	default:
		return ErrChargeNotPayable
	}
	if amount.GreaterThan(c.Outstanding()) {
		return ErrExceedsOutstanding
	}
	c.AmountPaid = c.AmountPaid.Add(amount)
	c.Status = StatusFor(c.AmountPaid, c.AmountOwed)
	return nil
}

// ApplyRefund reverses amount of the paid total. Only a full reversal moves
// the charge to REFUNDED; a partial one keeps it at INSTALLMENT.
func (c *StudentCharge) ApplyRefund(amount money.Money) error {
	if amount.GreaterThan(c.AmountPaid) {
		return ErrExceedsPaid
	}
	c.AmountPaid = c.AmountPaid.Sub(amount)
	if c.AmountPaid.IsZero() {
		c.Status = ChargeRefunded
	} else {
		c.Status = ChargeInstallment
	}
	return nil
}

// Cancel voids an unpaid charge.
func (c *StudentCharge) Cancel() error {
	if c.Status != ChargePending || !c.AmountPaid.IsZero() {
		return ErrChargeNotCancellable
	}
	c.Status = ChargeCancelled
	return nil
}
