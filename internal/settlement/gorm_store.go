package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms-backend/internal/domain/accounts"
	"lms-backend/internal/domain/billing"
	"lms-backend/internal/domain/classes"
	"lms-backend/internal/domain/students"
)

const (
	pgLockNotAvailable = "55P03"
	pgUniqueViolation  = "23505"
)

// GormStore is the Postgres-backed settlement store. Monetary transactions
// run with a bounded lock_timeout so contended settlements surface
// ErrLockTimeout instead of queueing forever.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) InTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SET LOCAL lock_timeout = '3s'").Error; err != nil {
			return err
		}
		return fn(&gormTx{db: tx})
	})
}

func (s *GormStore) FindPaymentForIdempotencyKey(ctx context.Context, senderID uuid.UUID, key string) (*billing.Payment, error) {
	var p billing.Payment
	err := s.db.WithContext(ctx).
		Where("sender_id = ? AND idempotency_key = ? AND status <> ?", senderID, key, billing.PaymentFailed).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) CreatePayments(ctx context.Context, ps []*billing.Payment) error {
	err := s.db.WithContext(ctx).Create(&ps).Error
	if isUniqueViolation(err) {
		// Another attempt with the same key won the race.
		return ErrSettlementInProgress
	}
	return err
}

func (s *GormStore) MarkPaymentsFailed(ctx context.Context, ids []uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&billing.Payment{}).
		Where("id IN ? AND status = ?", ids, billing.PaymentPending).
		Update("status", billing.PaymentFailed).Error
}

func (s *GormStore) PaymentByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var p billing.Payment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) PaymentsByCorrelation(ctx context.Context, correlationID uuid.UUID) ([]*billing.Payment, error) {
	var ps []*billing.Payment
	err := s.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Order("created_at ASC").
		Find(&ps).Error
	if err != nil {
		return nil, err
	}
	return ps, nil
}

func (s *GormStore) ChargeByID(ctx context.Context, id uuid.UUID) (*billing.StudentCharge, error) {
	var c billing.StudentCharge
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) EnsureAccount(ctx context.Context, ownerID uuid.UUID, ownerType accounts.OwnerType) (*accounts.Account, error) {
	acc := accounts.Account{OwnerID: ownerID, OwnerType: ownerType}
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND owner_type = ?", ownerID, ownerType).
		FirstOrCreate(&acc).Error
	if isUniqueViolation(err) {
		// Concurrent first use of the same owner; the row exists now.
		err = s.db.WithContext(ctx).
			Where("owner_id = ? AND owner_type = ?", ownerID, ownerType).
			First(&acc).Error
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *GormStore) StudentProfileByID(ctx context.Context, id uuid.UUID) (*students.StudentProfile, error) {
	var sp students.StudentProfile
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *GormStore) ClassByID(ctx context.Context, id uuid.UUID) (*classes.Class, error) {
	var c classes.Class
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) SessionByID(ctx context.Context, id uuid.UUID) (*classes.ClassSession, error) {
	var cs classes.ClassSession
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&cs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) AccountForUpdate(ctx context.Context, id uuid.UUID) (*accounts.Account, error) {
	var acc accounts.Account
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if isLockTimeout(err) {
		return nil, ErrLockTimeout
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (t *gormTx) SaveAccount(ctx context.Context, acc *accounts.Account) error {
	res := t.db.WithContext(ctx).
		Model(&accounts.Account{}).
		Where("id = ? AND version = ?", acc.ID, acc.Version).
		Updates(map[string]interface{}{
			"balance": acc.Balance,
			"version": acc.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: account %s", ErrVersionConflict, acc.ID)
	}
	acc.Version++
	return nil
}

func (t *gormTx) ChargeByID(ctx context.Context, id uuid.UUID) (*billing.StudentCharge, error) {
	var c billing.StudentCharge
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if isLockTimeout(err) {
		return nil, ErrLockTimeout
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *gormTx) SubscriptionCharge(ctx context.Context, studentProfileID, classID uuid.UUID, month, year int) (*billing.StudentCharge, error) {
	var c billing.StudentCharge
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_profile_id = ? AND class_id = ? AND month = ? AND year = ? AND type = ?",
			studentProfileID, classID, month, year, billing.ChargeSubscription).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if isLockTimeout(err) {
		return nil, ErrLockTimeout
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *gormTx) SessionCharge(ctx context.Context, studentProfileID, sessionID uuid.UUID) (*billing.StudentCharge, error) {
	var c billing.StudentCharge
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_profile_id = ? AND session_id = ? AND type = ?",
			studentProfileID, sessionID, billing.ChargeSession).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if isLockTimeout(err) {
		return nil, ErrLockTimeout
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *gormTx) CreateCharge(ctx context.Context, c *billing.StudentCharge) error {
	err := t.db.WithContext(ctx).Create(c).Error
	if pgErr := pgError(err); pgErr != nil && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case "idx_charges_subscription":
			return ErrSubscriptionAlreadyExists
		case "idx_charges_session":
			return ErrSessionChargeAlreadyExists
		}
	}
	return err
}

func (t *gormTx) SaveCharge(ctx context.Context, c *billing.StudentCharge) error {
	return t.db.WithContext(ctx).
		Model(&billing.StudentCharge{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"amount_paid": c.AmountPaid,
			"status":      c.Status,
		}).Error
}

func (t *gormTx) CreatePayment(ctx context.Context, p *billing.Payment) error {
	return t.db.WithContext(ctx).Create(p).Error
}

func (t *gormTx) CompletePayment(ctx context.Context, paymentID, referenceID uuid.UUID) error {
	res := t.db.WithContext(ctx).
		Model(&billing.Payment{}).
		Where("id = ? AND status = ?", paymentID, billing.PaymentPending).
		Updates(map[string]interface{}{
			"status":       billing.PaymentCompleted,
			"reference_id": referenceID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: reservation %s is no longer pending", ErrSettlementInProgress, paymentID)
	}
	return nil
}

func (t *gormTx) PaymentForUpdate(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var p billing.Payment
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if isLockTimeout(err) {
		return nil, ErrLockTimeout
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *gormTx) PaymentsByReference(ctx context.Context, refType billing.ReferenceType, referenceID uuid.UUID) ([]*billing.Payment, error) {
	var ps []*billing.Payment
	err := t.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, referenceID).
		Order("created_at ASC").
		Find(&ps).Error
	if err != nil {
		return nil, err
	}
	return ps, nil
}

func pgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

func isUniqueViolation(err error) bool {
	pgErr := pgError(err)
	return pgErr != nil && pgErr.Code == pgUniqueViolation
}

func isLockTimeout(err error) bool {
	pgErr := pgError(err)
	return pgErr != nil && pgErr.Code == pgLockNotAvailable
}
