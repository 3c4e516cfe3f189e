package settlement

import (
	"context"

	"github.com/google/uuid"

	"lms-backend/internal/domain/accounts"
	"lms-backend/internal/domain/billing"
	"lms-backend/internal/domain/classes"
	"lms-backend/internal/domain/students"
)

// Tx is the storage view inside one monetary transaction. Everything called
// through it commits or rolls back as a single unit; the ledger and the
// orchestrator never open transactions of their own.
type Tx interface {
	// AccountForUpdate loads the account row under an exclusive lock held
	// until the transaction ends.
	AccountForUpdate(ctx context.Context, id uuid.UUID) (*accounts.Account, error)
	// SaveAccount writes balance and bumps the version; fails with
	// ErrVersionConflict when the row changed since it was read.
	SaveAccount(ctx context.Context, acc *accounts.Account) error

	ChargeByID(ctx context.Context, id uuid.UUID) (*billing.StudentCharge, error)
	SubscriptionCharge(ctx context.Context, studentProfileID, classID uuid.UUID, month, year int) (*billing.StudentCharge, error)
	SessionCharge(ctx context.Context, studentProfileID, sessionID uuid.UUID) (*billing.StudentCharge, error)
	CreateCharge(ctx context.Context, c *billing.StudentCharge) error
	SaveCharge(ctx context.Context, c *billing.StudentCharge) error

	CreatePayment(ctx context.Context, p *billing.Payment) error
	// CompletePayment flips a PENDING reservation to COMPLETED and stamps the
	// reference it settled.
	CompletePayment(ctx context.Context, paymentID, referenceID uuid.UUID) error
	// PaymentForUpdate loads the payment row under an exclusive lock held
	// until the transaction ends.
	PaymentForUpdate(ctx context.Context, id uuid.UUID) (*billing.Payment, error)
	PaymentsByReference(ctx context.Context, refType billing.ReferenceType, referenceID uuid.UUID) ([]*billing.Payment, error)
}

// Store is the persistence boundary of the settlement engine. Charge and
// account lookups that do not move money run outside the monetary
// transaction; reservations and failure marking deliberately run in their own
// small transactions so a crashed attempt leaves a visible PENDING row.
type Store interface {
	InTransaction(ctx context.Context, fn func(tx Tx) error) error

	// FindPaymentForIdempotencyKey returns the non-FAILED payment for
	// (sender, key), or (nil, nil).
	FindPaymentForIdempotencyKey(ctx context.Context, senderID uuid.UUID, key string) (*billing.Payment, error)
	// CreatePayments inserts the PENDING reservation rows of one attempt.
	// A concurrent attempt with the same key surfaces ErrSettlementInProgress.
	CreatePayments(ctx context.Context, ps []*billing.Payment) error
	// MarkPaymentsFailed moves still-PENDING reservations to FAILED after an
	// aborted attempt, freeing the idempotency key for a retry.
	MarkPaymentsFailed(ctx context.Context, ids []uuid.UUID) error

	PaymentByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error)
	PaymentsByCorrelation(ctx context.Context, correlationID uuid.UUID) ([]*billing.Payment, error)
	ChargeByID(ctx context.Context, id uuid.UUID) (*billing.StudentCharge, error)

	// EnsureAccount returns the owner's account, creating it with a zero
	// balance on first use.
	EnsureAccount(ctx context.Context, ownerID uuid.UUID, ownerType accounts.OwnerType) (*accounts.Account, error)

	StudentProfileByID(ctx context.Context, id uuid.UUID) (*students.StudentProfile, error)
	ClassByID(ctx context.Context, id uuid.UUID) (*classes.Class, error)
	SessionByID(ctx context.Context, id uuid.UUID) (*classes.ClassSession, error)
}
