package billing

import (
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/domain/money"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// ReferenceType tells what a payment leg settles.
type ReferenceType string

const (
	RefSubscriptionCharge ReferenceType = "SUBSCRIPTION_CHARGE"
	RefSessionCharge      ReferenceType = "SESSION_CHARGE"
	RefSystemFee          ReferenceType = "SYSTEM_FEE"
	RefRefund             ReferenceType = "REFUND"
	RefDeposit            ReferenceType = "DEPOSIT"
)

// Payment is one leg of a settlement: a single monetary movement between two
// accounts. Legs of a split settlement share a correlation id. The pair
// (idempotency_key, sender_id) is unique among non-failed payments, so a
// retried request can never move money twice.
type Payment struct {
	ID             uuid.UUID     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SenderID       uuid.UUID     `json:"sender_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_payments_idem_sender,priority:2,where:status <> 'FAILED'"`
	ReceiverID     uuid.UUID     `json:"receiver_id" gorm:"type:uuid;not null;index"`
	Amount         money.Money   `json:"amount" gorm:"not null"`
	Status         PaymentStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	ReferenceType  ReferenceType `json:"reference_type" gorm:"type:varchar(30);not null"`
	ReferenceID    uuid.UUID     `json:"reference_id" gorm:"type:uuid;not null;index"`
	IdempotencyKey *string       `json:"idempotency_key,omitempty" gorm:"uniqueIndex:idx_payments_idem_sender,priority:1,where:status <> 'FAILED'"`
	CorrelationID  uuid.UUID     `json:"correlation_id" gorm:"type:uuid;not null;index"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
