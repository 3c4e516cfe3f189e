// Package settlement is the billing engine: it moves money between wallet
// and cashbox accounts, records payments, and advances student charges, all
// as one atomic unit per request.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"lms-backend/internal/domain/accounts"
	"lms-backend/internal/domain/billing"
	"lms-backend/internal/domain/money"
	"lms-backend/internal/settings"
)

// PaymentSource selects which account funds a settlement leg.
type PaymentSource string

const (
	// SourceWallet debits the guardian's wallet.
	SourceWallet PaymentSource = "WALLET"
	// SourceCash records cash handed over at the desk; the counter-leg is
	// the system cash-intake account.
	SourceCash PaymentSource = "CASH"
)

// PaymentLeg is one funding slice of a (possibly split) payment.
type PaymentLeg struct {
	Source PaymentSource `json:"source"`
	Amount money.Money   `json:"amount"`
}

type PayInstallmentRequest struct {
	StudentProfileID uuid.UUID
	ClassID          uuid.UUID
	Month            int
	Year             int
	Legs             []PaymentLeg
	IdempotencyKey   string
}

type PaySessionRequest struct {
	StudentProfileID uuid.UUID
	SessionID        uuid.UUID
	Amount           money.Money
	Source           PaymentSource
	IdempotencyKey   string
}

type CreateChargeRequest struct {
	Type             billing.ChargeType
	StudentProfileID uuid.UUID
	ClassID          *uuid.UUID
	Month            *int
	Year             *int
	SessionID        *uuid.UUID
}

// Result is what a committed (or replayed) settlement returns.
type Result struct {
	Payments []*billing.Payment     `json:"payments"`
	Charge   *billing.StudentCharge `json:"charge,omitempty"`
}

// EventSink receives domain events after commit. Delivery is fire and
// forget; a dropped event never rolls back a committed payment.
type EventSink interface {
	Publish(name string, payload map[string]any)
}

// Service orchestrates settlements. It is the only writer of payments and the
// only component allowed to invoke ledger mutations.
type Service struct {
	store    Store
	settings *settings.Store
	ledger   Ledger
	events   EventSink
	logger   *slog.Logger
}

func NewService(store Store, settings *settings.Store, events EventSink, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		settings: settings,
		events:   events,
		logger:   logger,
	}
}

type plannedLeg struct {
	payment *billing.Payment
	// systemFee marks the fee-skim leg, which is exempt from the max-debit
	// guardrail.
	systemFee bool
}

type settlementPlan struct {
	key  string
	legs []plannedLeg
	// chargeAmount is the portion applied to the charge (fee legs excluded).
	chargeAmount money.Money
	// resolve loads or creates the charge inside the monetary transaction
	// and returns the reference id stamped on the completed legs. Charge is
	// nil for movements that settle no charge (deposits).
	resolve   func(tx Tx) (*billing.StudentCharge, uuid.UUID, error)
	eventName string
}

// PayInstallment settles (part of) a subscription charge for a class month.
// Legs may combine wallet and cash; all legs plus the fee skim commit or roll
// back together.
func (s *Service) PayInstallment(ctx context.Context, req PayInstallmentRequest) (*Result, error) {
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", ErrValidation)
	}
	if len(req.Legs) == 0 {
		return nil, fmt.Errorf("%w: at least one payment leg is required", ErrValidation)
	}
	if req.Month < 1 || req.Month > 12 || req.Year < 2000 {
		return nil, fmt.Errorf("%w: invalid billing period %d/%d", ErrValidation, req.Month, req.Year)
	}

	total := money.Zero()
	seen := make(map[PaymentSource]bool, len(req.Legs))
	for _, leg := range req.Legs {
		switch leg.Source {
		case SourceWallet, SourceCash:
		default:
			return nil, ErrSubscriptionInvalidPaymentSource
		}
		if seen[leg.Source] {
			return nil, fmt.Errorf("%w: duplicate payment source %s", ErrValidation, leg.Source)
		}
		seen[leg.Source] = true
		if !leg.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: leg amount must be positive", ErrValidation)
		}
		total = total.Add(leg.Amount)
	}

	student, err := s.store.StudentProfileByID(ctx, req.StudentProfileID)
	if err != nil {
		return nil, err
	}
	class, err := s.store.ClassByID(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}

	cashbox, err := s.store.EnsureAccount(ctx, class.BranchID, accounts.OwnerBranch)
	if err != nil {
		return nil, err
	}

	correlationID := uuid.New()
	legs := make([]plannedLeg, 0, len(req.Legs)+1)
	for _, leg := range req.Legs {
		var sender *accounts.Account
		key := req.IdempotencyKey
		switch leg.Source {
		case SourceWallet:
			sender, err = s.store.EnsureAccount(ctx, student.GuardianUserID, accounts.OwnerUser)
		case SourceCash:
			// The cash-intake sender is shared by every caller, so the derived
			// key must carry the payer or unrelated requests with the same key
			// would replay each other.
			sender, err = s.store.EnsureAccount(ctx, accounts.CashIntakeOwnerID, accounts.OwnerSystem)
			key += ":cash:" + req.StudentProfileID.String()
		}
		if err != nil {
			return nil, err
		}
		legs = append(legs, plannedLeg{payment: &billing.Payment{
			ID:             uuid.New(),
			SenderID:       sender.ID,
			ReceiverID:     cashbox.ID,
			Amount:         leg.Amount,
			Status:         billing.PaymentPending,
			ReferenceType:  billing.RefSubscriptionCharge,
			IdempotencyKey: &key,
			CorrelationID:  correlationID,
		}})
	}

	feeLeg, err := s.planFeeLeg(ctx, req.IdempotencyKey, req.StudentProfileID, cashbox, total, correlationID)
	if err != nil {
		return nil, err
	}
	if feeLeg != nil {
		legs = append(legs, *feeLeg)
	}

	return s.settle(ctx, settlementPlan{
		key:          req.IdempotencyKey,
		legs:         legs,
		chargeAmount: total,
		eventName:    "student.charged",
		resolve: func(tx Tx) (*billing.StudentCharge, uuid.UUID, error) {
			c, err := tx.SubscriptionCharge(ctx, req.StudentProfileID, req.ClassID, req.Month, req.Year)
			if err != nil {
				return nil, uuid.Nil, err
			}
			if c == nil {
				classID, month, year := req.ClassID, req.Month, req.Year
				c = &billing.StudentCharge{
					ID:               uuid.New(),
					StudentProfileID: req.StudentProfileID,
					Type:             billing.ChargeSubscription,
					ClassID:          &classID,
					Month:            &month,
					Year:             &year,
					AmountOwed:       class.MonthlyFee,
					AmountPaid:       money.Zero(),
					Status:           billing.ChargePending,
				}
				if err := tx.CreateCharge(ctx, c); err != nil {
					return nil, uuid.Nil, err
				}
			}
			return c, c.ID, nil
		},
	})
}

// PaySession settles a single-session charge. Sessions are wallet-only.
func (s *Service) PaySession(ctx context.Context, req PaySessionRequest) (*Result, error) {
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", ErrValidation)
	}
	if req.Source != SourceWallet {
		return nil, ErrSessionInvalidPaymentSource
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	student, err := s.store.StudentProfileByID(ctx, req.StudentProfileID)
	if err != nil {
		return nil, err
	}
	session, err := s.store.SessionByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	class, err := s.store.ClassByID(ctx, session.ClassID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.store.EnsureAccount(ctx, student.GuardianUserID, accounts.OwnerUser)
	if err != nil {
		return nil, err
	}
	cashbox, err := s.store.EnsureAccount(ctx, class.BranchID, accounts.OwnerBranch)
	if err != nil {
		return nil, err
	}

	correlationID := uuid.New()
	key := req.IdempotencyKey
	legs := []plannedLeg{{payment: &billing.Payment{
		ID:             uuid.New(),
		SenderID:       wallet.ID,
		ReceiverID:     cashbox.ID,
		Amount:         req.Amount,
		Status:         billing.PaymentPending,
		ReferenceType:  billing.RefSessionCharge,
		IdempotencyKey: &key,
		CorrelationID:  correlationID,
	}}}

	feeLeg, err := s.planFeeLeg(ctx, req.IdempotencyKey, req.StudentProfileID, cashbox, req.Amount, correlationID)
	if err != nil {
		return nil, err
	}
	if feeLeg != nil {
		legs = append(legs, *feeLeg)
	}

	return s.settle(ctx, settlementPlan{
		key:          req.IdempotencyKey,
		legs:         legs,
		chargeAmount: req.Amount,
		eventName:    "student.charged",
		resolve: func(tx Tx) (*billing.StudentCharge, uuid.UUID, error) {
			c, err := tx.SessionCharge(ctx, req.StudentProfileID, req.SessionID)
			if err != nil {
				return nil, uuid.Nil, err
			}
			if c == nil {
				sessionID := req.SessionID
				c = &billing.StudentCharge{
					ID:               uuid.New(),
					StudentProfileID: req.StudentProfileID,
					Type:             billing.ChargeSession,
					SessionID:        &sessionID,
					AmountOwed:       session.Price,
					AmountPaid:       money.Zero(),
					Status:           billing.ChargePending,
				}
				if err := tx.CreateCharge(ctx, c); err != nil {
					return nil, uuid.Nil, err
				}
			}
			return c, c.ID, nil
		},
	})
}

// Deposit tops up a guardian wallet. The counter-leg is the system
// cash-intake account, so platform money stays conserved.
func (s *Service) Deposit(ctx context.Context, userID uuid.UUID, amount money.Money, idempotencyKey string) (*Result, error) {
	if idempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	wallet, err := s.store.EnsureAccount(ctx, userID, accounts.OwnerUser)
	if err != nil {
		return nil, err
	}
	intake, err := s.store.EnsureAccount(ctx, accounts.CashIntakeOwnerID, accounts.OwnerSystem)
	if err != nil {
		return nil, err
	}

	// The intake sender is shared by every depositor; scope the key by user.
	key := idempotencyKey + ":dep:" + userID.String()
	walletID := wallet.ID
	return s.settle(ctx, settlementPlan{
		key: idempotencyKey,
		legs: []plannedLeg{{payment: &billing.Payment{
			ID:             uuid.New(),
			SenderID:       intake.ID,
			ReceiverID:     wallet.ID,
			Amount:         amount,
			Status:         billing.PaymentPending,
			ReferenceType:  billing.RefDeposit,
			IdempotencyKey: &key,
			CorrelationID:  uuid.New(),
		}}},
		eventName: "wallet.deposited",
		resolve: func(Tx) (*billing.StudentCharge, uuid.UUID, error) {
			return nil, walletID, nil
		},
	})
}

// CreateCharge creates a charge ahead of payment (e.g. when the enrollment
// month ticks over or a session is billed).
func (s *Service) CreateCharge(ctx context.Context, req CreateChargeRequest) (*billing.StudentCharge, error) {
	if _, err := s.store.StudentProfileByID(ctx, req.StudentProfileID); err != nil {
		return nil, err
	}

	var charge *billing.StudentCharge
	switch req.Type {
	case billing.ChargeSubscription:
		if req.ClassID == nil || req.Month == nil || req.Year == nil {
			return nil, fmt.Errorf("%w: subscription charges need class, month and year", ErrValidation)
		}
		if *req.Month < 1 || *req.Month > 12 || *req.Year < 2000 {
			return nil, fmt.Errorf("%w: invalid billing period %d/%d", ErrValidation, *req.Month, *req.Year)
		}
		class, err := s.store.ClassByID(ctx, *req.ClassID)
		if err != nil {
			return nil, err
		}
		err = s.store.InTransaction(ctx, func(tx Tx) error {
			existing, err := tx.SubscriptionCharge(ctx, req.StudentProfileID, *req.ClassID, *req.Month, *req.Year)
			if err != nil {
				return err
			}
			if existing != nil {
				return ErrSubscriptionAlreadyExists
			}
			charge = &billing.StudentCharge{
				ID:               uuid.New(),
				StudentProfileID: req.StudentProfileID,
				Type:             billing.ChargeSubscription,
				ClassID:          req.ClassID,
				Month:            req.Month,
				Year:             req.Year,
				AmountOwed:       class.MonthlyFee,
				AmountPaid:       money.Zero(),
				Status:           billing.ChargePending,
			}
			return tx.CreateCharge(ctx, charge)
		})
		if err != nil {
			return nil, err
		}

	case billing.ChargeSession:
		if req.SessionID == nil {
			return nil, fmt.Errorf("%w: session charges need a session id", ErrValidation)
		}
		session, err := s.store.SessionByID(ctx, *req.SessionID)
		if err != nil {
			return nil, err
		}
		err = s.store.InTransaction(ctx, func(tx Tx) error {
			existing, err := tx.SessionCharge(ctx, req.StudentProfileID, *req.SessionID)
			if err != nil {
				return err
			}
			if existing != nil {
				return ErrSessionChargeAlreadyExists
			}
			charge = &billing.StudentCharge{
				ID:               uuid.New(),
				StudentProfileID: req.StudentProfileID,
				Type:             billing.ChargeSession,
				SessionID:        req.SessionID,
				AmountOwed:       session.Price,
				AmountPaid:       money.Zero(),
				Status:           billing.ChargePending,
			}
			return tx.CreateCharge(ctx, charge)
		})
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: unknown charge type %q", ErrValidation, req.Type)
	}

	s.logger.Info("charge created",
		"charge_id", charge.ID,
		"type", charge.Type,
		"student_profile_id", charge.StudentProfileID,
		"amount_owed", charge.AmountOwed,
	)
	return charge, nil
}

// CancelCharge voids an unpaid charge.
func (s *Service) CancelCharge(ctx context.Context, chargeID uuid.UUID) (*billing.StudentCharge, error) {
	var charge *billing.StudentCharge
	err := s.store.InTransaction(ctx, func(tx Tx) error {
		c, err := tx.ChargeByID(ctx, chargeID)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrChargeNotFound
		}
		if err := c.Cancel(); err != nil {
			return err
		}
		charge = c
		return tx.SaveCharge(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return charge, nil
}

// Refund reverses a completed charge payment, fully by default or partially
// when amount is given. The reversal runs under the same guardrails as any
// debit; the charge returns to REFUNDED only when the full paid amount is
// gone.
func (s *Service) Refund(ctx context.Context, paymentID uuid.UUID, amount *money.Money) (*billing.Payment, error) {
	orig, err := s.store.PaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if orig == nil {
		return nil, ErrPaymentNotFound
	}
	if orig.Status != billing.PaymentCompleted {
		return nil, fmt.Errorf("%w: payment is %s", ErrRefundNotAllowed, orig.Status)
	}
	if orig.ReferenceType != billing.RefSubscriptionCharge && orig.ReferenceType != billing.RefSessionCharge {
		return nil, fmt.Errorf("%w: %s legs are not refundable", ErrRefundNotAllowed, orig.ReferenceType)
	}

	amt := orig.Amount
	if amount != nil {
		amt = *amount
	}
	if !amt.IsPositive() {
		return nil, fmt.Errorf("%w: refund amount must be positive", ErrValidation)
	}

	rails, err := s.settings.Guardrails(ctx)
	if err != nil {
		return nil, err
	}

	var refund *billing.Payment
	err = s.store.InTransaction(ctx, func(tx Tx) error {
		// Lock the original leg so two refunds of it serialize, then
		// recompute the ceiling under the lock. The charge-level check in
		// ApplyRefund alone would let a split-payment leg be refunded twice.
		orig, err = tx.PaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if orig.Status != billing.PaymentCompleted {
			return fmt.Errorf("%w: payment is %s", ErrRefundNotAllowed, orig.Status)
		}
		prior, err := tx.PaymentsByReference(ctx, billing.RefRefund, orig.ID)
		if err != nil {
			return err
		}
		refunded := money.Zero()
		for _, p := range prior {
			refunded = refunded.Add(p.Amount)
		}
		if refunded.Add(amt).GreaterThan(orig.Amount) {
			return fmt.Errorf("%w: refund exceeds the original payment", ErrValidation)
		}

		charge, err := tx.ChargeByID(ctx, orig.ReferenceID)
		if err != nil {
			return err
		}
		if charge == nil {
			return ErrChargeNotFound
		}
		if err := charge.ApplyRefund(amt); err != nil {
			if errors.Is(err, billing.ErrExceedsPaid) {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			return err
		}

		if err := lockInOrder(ctx, tx, orig.SenderID, orig.ReceiverID); err != nil {
			return err
		}
		if _, err := s.ledger.Debit(ctx, tx, orig.ReceiverID, amt, rails, false); err != nil {
			return err
		}
		if _, err := s.ledger.Credit(ctx, tx, orig.SenderID, amt); err != nil {
			return err
		}

		refund = &billing.Payment{
			ID:            uuid.New(),
			SenderID:      orig.ReceiverID,
			ReceiverID:    orig.SenderID,
			Amount:        amt,
			Status:        billing.PaymentRefunded,
			ReferenceType: billing.RefRefund,
			ReferenceID:   orig.ID,
			CorrelationID: orig.CorrelationID,
		}
		if err := tx.CreatePayment(ctx, refund); err != nil {
			return err
		}
		return tx.SaveCharge(ctx, charge)
	})
	if err != nil {
		s.logger.Warn("refund aborted", "payment_id", paymentID, "error", err)
		return nil, err
	}

	s.logger.Info("refund committed", "payment_id", paymentID, "refund_id", refund.ID, "amount", amt)
	s.events.Publish("payment.refunded", map[string]any{
		"payment_id": orig.ID.String(),
		"refund_id":  refund.ID.String(),
		"amount":     amt.String(),
	})
	return refund, nil
}

// settle runs one settlement attempt: idempotency check, durable PENDING
// reservations, then the monetary transaction. A crash mid-flight leaves the
// reservations PENDING; retries with the same key are rejected as in
// progress rather than applied twice.
func (s *Service) settle(ctx context.Context, plan settlementPlan) (*Result, error) {
	for _, leg := range plan.legs {
		if leg.payment.IdempotencyKey == nil {
			continue
		}
		existing, err := s.store.FindPaymentForIdempotencyKey(ctx, leg.payment.SenderID, *leg.payment.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			continue
		}
		if existing.Status != billing.PaymentCompleted {
			return nil, ErrSettlementInProgress
		}
		if !existing.Amount.Equal(leg.payment.Amount) || existing.ReceiverID != leg.payment.ReceiverID {
			return nil, fmt.Errorf("%w: idempotency key reused with different parameters", ErrValidation)
		}
		return s.replay(ctx, existing)
	}

	reserved := make([]*billing.Payment, len(plan.legs))
	for i, leg := range plan.legs {
		reserved[i] = leg.payment
	}
	if err := s.store.CreatePayments(ctx, reserved); err != nil {
		return nil, err
	}

	var charge *billing.StudentCharge
	err := s.store.InTransaction(ctx, func(tx Tx) error {
		var refID uuid.UUID
		var err error
		charge, refID, err = plan.resolve(tx)
		if err != nil {
			return err
		}

		if charge != nil {
			if err := charge.ApplyPayment(plan.chargeAmount); err != nil {
				if errors.Is(err, billing.ErrExceedsOutstanding) {
					return fmt.Errorf("%w: %v", ErrValidation, err)
				}
				return err
			}
		}

		rails, err := s.settings.Guardrails(ctx)
		if err != nil {
			return err
		}

		if err := s.lockPlanAccounts(ctx, tx, plan.legs); err != nil {
			return err
		}
		for _, leg := range plan.legs {
			if _, err := s.ledger.Debit(ctx, tx, leg.payment.SenderID, leg.payment.Amount, rails, leg.systemFee); err != nil {
				return err
			}
			if _, err := s.ledger.Credit(ctx, tx, leg.payment.ReceiverID, leg.payment.Amount); err != nil {
				return err
			}
		}

		for _, leg := range plan.legs {
			if err := tx.CompletePayment(ctx, leg.payment.ID, refID); err != nil {
				return err
			}
			leg.payment.Status = billing.PaymentCompleted
			leg.payment.ReferenceID = refID
		}

		if charge != nil {
			return tx.SaveCharge(ctx, charge)
		}
		return nil
	})
	if err != nil {
		s.failReservations(ctx, reserved)
		s.logger.Warn("settlement aborted",
			"idempotency_key", plan.key,
			"error", err,
		)
		s.events.Publish("payment.failed", map[string]any{
			"idempotency_key": plan.key,
			"error":           err.Error(),
		})
		return nil, err
	}

	s.logger.Info("settlement committed",
		"idempotency_key", plan.key,
		"legs", len(reserved),
		"amount", plan.chargeAmount,
	)
	payload := map[string]any{
		"idempotency_key": plan.key,
		"amount":          plan.chargeAmount.String(),
	}
	if charge != nil {
		payload["charge_id"] = charge.ID.String()
		payload["student_profile_id"] = charge.StudentProfileID.String()
		payload["charge_status"] = string(charge.Status)
	}
	s.events.Publish(plan.eventName, payload)

	return &Result{Payments: reserved, Charge: charge}, nil
}

// replay returns the committed outcome of an earlier attempt with the same
// idempotency key, without moving any money.
func (s *Service) replay(ctx context.Context, existing *billing.Payment) (*Result, error) {
	payments, err := s.store.PaymentsByCorrelation(ctx, existing.CorrelationID)
	if err != nil {
		return nil, err
	}

	var charge *billing.StudentCharge
	if existing.ReferenceType == billing.RefSubscriptionCharge || existing.ReferenceType == billing.RefSessionCharge {
		charge, err = s.store.ChargeByID(ctx, existing.ReferenceID)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("settlement replayed", "payment_id", existing.ID)
	return &Result{Payments: payments, Charge: charge}, nil
}

func (s *Service) failReservations(ctx context.Context, reserved []*billing.Payment) {
	ids := make([]uuid.UUID, len(reserved))
	for i, p := range reserved {
		ids[i] = p.ID
	}
	if err := s.store.MarkPaymentsFailed(ctx, ids); err != nil {
		// Leftover PENDING rows block the key until cleaned up; callers see
		// ErrSettlementInProgress, never a double movement.
		s.logger.Error("failed to mark reservations failed", "error", err)
		return
	}
	for _, p := range reserved {
		p.Status = billing.PaymentFailed
	}
}

// planFeeLeg sizes the system fee skim: fees% of amount moves from the
// branch cashbox to the system revenue account, exempt from maxDebit. The
// cashbox sender is shared branch-wide, so the derived key carries the
// student the settlement is for.
func (s *Service) planFeeLeg(ctx context.Context, key string, studentProfileID uuid.UUID, cashbox *accounts.Account, amount money.Money, correlationID uuid.UUID) (*plannedLeg, error) {
	fees, err := s.settings.Fees(ctx)
	if err != nil {
		return nil, err
	}
	fee := amount.MulPercent(fees)
	if !fee.IsPositive() {
		return nil, nil
	}

	revenue, err := s.store.EnsureAccount(ctx, accounts.RevenueOwnerID, accounts.OwnerSystem)
	if err != nil {
		return nil, err
	}

	feeKey := key + ":fee:" + studentProfileID.String()
	return &plannedLeg{
		systemFee: true,
		payment: &billing.Payment{
			ID:             uuid.New(),
			SenderID:       cashbox.ID,
			ReceiverID:     revenue.ID,
			Amount:         fee,
			Status:         billing.PaymentPending,
			ReferenceType:  billing.RefSystemFee,
			IdempotencyKey: &feeKey,
			CorrelationID:  correlationID,
		},
	}, nil
}

// lockPlanAccounts takes every row lock of the attempt in ascending id order
// so concurrent settlements touching the same accounts cannot deadlock.
func (s *Service) lockPlanAccounts(ctx context.Context, tx Tx, legs []plannedLeg) error {
	ids := make([]uuid.UUID, 0, len(legs)*2)
	for _, leg := range legs {
		ids = append(ids, leg.payment.SenderID, leg.payment.ReceiverID)
	}
	return lockInOrder(ctx, tx, ids...)
}

func lockInOrder(ctx context.Context, tx Tx, ids ...uuid.UUID) error {
	unique := make(map[uuid.UUID]struct{}, len(ids))
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := unique[id]; ok {
			continue
		}
		unique[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].String() < ordered[j].String() })

	for _, id := range ordered {
		if _, err := tx.AccountForUpdate(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
