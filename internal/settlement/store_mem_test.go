package settlement

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/domain/accounts"
	"lms-backend/internal/domain/billing"
	"lms-backend/internal/domain/classes"
	"lms-backend/internal/domain/students"
)

// memStore is an in-memory Store with serializable transactions: one global
// mutex spans each transaction, and a snapshot of the mutable tables is
// restored on rollback. It mirrors the uniqueness rules the Postgres schema
// enforces.
type memStore struct {
	mu sync.Mutex

	accounts     map[uuid.UUID]*accounts.Account
	payments     map[uuid.UUID]*billing.Payment
	paymentOrder []uuid.UUID
	charges      map[uuid.UUID]*billing.StudentCharge
	students     map[uuid.UUID]*students.StudentProfile
	classes      map[uuid.UUID]*classes.Class
	sessions     map[uuid.UUID]*classes.ClassSession
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[uuid.UUID]*accounts.Account),
		payments: make(map[uuid.UUID]*billing.Payment),
		charges:  make(map[uuid.UUID]*billing.StudentCharge),
		students: make(map[uuid.UUID]*students.StudentProfile),
		classes:  make(map[uuid.UUID]*classes.Class),
		sessions: make(map[uuid.UUID]*classes.ClassSession),
	}
}

func (m *memStore) addStudent(sp students.StudentProfile) *students.StudentProfile {
	if sp.ID == uuid.Nil {
		sp.ID = uuid.New()
	}
	m.students[sp.ID] = &sp
	return &sp
}

func (m *memStore) addClass(c classes.Class) *classes.Class {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.classes[c.ID] = &c
	return &c
}

func (m *memStore) addSession(cs classes.ClassSession) *classes.ClassSession {
	if cs.ID == uuid.Nil {
		cs.ID = uuid.New()
	}
	m.sessions[cs.ID] = &cs
	return &cs
}

func (m *memStore) balanceOf(id uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].Balance.String()
}

func (m *memStore) InTransaction(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapAccounts := cloneMap(m.accounts)
	snapPayments := cloneMap(m.payments)
	snapOrder := append([]uuid.UUID(nil), m.paymentOrder...)
	snapCharges := cloneMap(m.charges)

	if err := fn(&memTx{s: m}); err != nil {
		m.accounts = snapAccounts
		m.payments = snapPayments
		m.paymentOrder = snapOrder
		m.charges = snapCharges
		return err
	}
	return nil
}

func cloneMap[T any](in map[uuid.UUID]*T) map[uuid.UUID]*T {
	out := make(map[uuid.UUID]*T, len(in))
	for k, v := range in {
		c := *v
		out[k] = &c
	}
	return out
}

func (m *memStore) FindPaymentForIdempotencyKey(_ context.Context, senderID uuid.UUID, key string) (*billing.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findByKeyLocked(senderID, key), nil
}

func (m *memStore) findByKeyLocked(senderID uuid.UUID, key string) *billing.Payment {
	for _, p := range m.payments {
		if p.SenderID == senderID && p.IdempotencyKey != nil && *p.IdempotencyKey == key && p.Status != billing.PaymentFailed {
			c := *p
			return &c
		}
	}
	return nil
}

func (m *memStore) CreatePayments(_ context.Context, ps []*billing.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range ps {
		if p.IdempotencyKey != nil && m.findByKeyLocked(p.SenderID, *p.IdempotencyKey) != nil {
			return ErrSettlementInProgress
		}
	}
	now := time.Now()
	for _, p := range ps {
		c := *p
		c.CreatedAt = now
		m.payments[c.ID] = &c
		m.paymentOrder = append(m.paymentOrder, c.ID)
	}
	return nil
}

func (m *memStore) MarkPaymentsFailed(_ context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if p, ok := m.payments[id]; ok && p.Status == billing.PaymentPending {
			p.Status = billing.PaymentFailed
		}
	}
	return nil
}

func (m *memStore) PaymentByID(_ context.Context, id uuid.UUID) (*billing.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (m *memStore) PaymentsByCorrelation(_ context.Context, correlationID uuid.UUID) ([]*billing.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*billing.Payment
	for _, id := range m.paymentOrder {
		if p := m.payments[id]; p != nil && p.CorrelationID == correlationID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memStore) ChargeByID(_ context.Context, id uuid.UUID) (*billing.StudentCharge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.charges[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) EnsureAccount(_ context.Context, ownerID uuid.UUID, ownerType accounts.OwnerType) (*accounts.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.OwnerID == ownerID && acc.OwnerType == ownerType {
			c := *acc
			return &c, nil
		}
	}
	acc := &accounts.Account{ID: uuid.New(), OwnerID: ownerID, OwnerType: ownerType}
	m.accounts[acc.ID] = acc
	c := *acc
	return &c, nil
}

func (m *memStore) StudentProfileByID(_ context.Context, id uuid.UUID) (*students.StudentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sp, ok := m.students[id]
	if !ok {
		return nil, ErrStudentNotFound
	}
	c := *sp
	return &c, nil
}

func (m *memStore) ClassByID(_ context.Context, id uuid.UUID) (*classes.Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cl, ok := m.classes[id]
	if !ok {
		return nil, ErrClassNotFound
	}
	c := *cl
	return &c, nil
}

func (m *memStore) SessionByID(_ context.Context, id uuid.UUID) (*classes.ClassSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	c := *cs
	return &c, nil
}

type memTx struct {
	s *memStore
}

func (t *memTx) AccountForUpdate(_ context.Context, id uuid.UUID) (*accounts.Account, error) {
	acc, ok := t.s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	c := *acc
	return &c, nil
}

func (t *memTx) SaveAccount(_ context.Context, acc *accounts.Account) error {
	cur, ok := t.s.accounts[acc.ID]
	if !ok {
		return ErrAccountNotFound
	}
	if cur.Version != acc.Version {
		return ErrVersionConflict
	}
	cur.Balance = acc.Balance
	cur.Version++
	acc.Version++
	return nil
}

func (t *memTx) ChargeByID(_ context.Context, id uuid.UUID) (*billing.StudentCharge, error) {
	c, ok := t.s.charges[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (t *memTx) SubscriptionCharge(_ context.Context, studentProfileID, classID uuid.UUID, month, year int) (*billing.StudentCharge, error) {
	for _, c := range t.s.charges {
		if c.Type == billing.ChargeSubscription &&
			c.StudentProfileID == studentProfileID &&
			c.ClassID != nil && *c.ClassID == classID &&
			c.Month != nil && *c.Month == month &&
			c.Year != nil && *c.Year == year {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *memTx) SessionCharge(_ context.Context, studentProfileID, sessionID uuid.UUID) (*billing.StudentCharge, error) {
	for _, c := range t.s.charges {
		if c.Type == billing.ChargeSession &&
			c.StudentProfileID == studentProfileID &&
			c.SessionID != nil && *c.SessionID == sessionID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *memTx) CreateCharge(ctx context.Context, c *billing.StudentCharge) error {
	if c.Type == billing.ChargeSubscription && c.ClassID != nil && c.Month != nil && c.Year != nil {
		existing, _ := t.SubscriptionCharge(ctx, c.StudentProfileID, *c.ClassID, *c.Month, *c.Year)
		if existing != nil {
			return ErrSubscriptionAlreadyExists
		}
	}
	if c.Type == billing.ChargeSession && c.SessionID != nil {
		existing, _ := t.SessionCharge(ctx, c.StudentProfileID, *c.SessionID)
		if existing != nil {
			return ErrSessionChargeAlreadyExists
		}
	}
	cp := *c
	t.s.charges[cp.ID] = &cp
	return nil
}

func (t *memTx) SaveCharge(_ context.Context, c *billing.StudentCharge) error {
	cur, ok := t.s.charges[c.ID]
	if !ok {
		return ErrChargeNotFound
	}
	cur.AmountPaid = c.AmountPaid
	cur.Status = c.Status
	return nil
}

func (t *memTx) CreatePayment(_ context.Context, p *billing.Payment) error {
	cp := *p
	cp.CreatedAt = time.Now()
	t.s.payments[cp.ID] = &cp
	t.s.paymentOrder = append(t.s.paymentOrder, cp.ID)
	return nil
}

func (t *memTx) CompletePayment(_ context.Context, paymentID, referenceID uuid.UUID) error {
	p, ok := t.s.payments[paymentID]
	if !ok || p.Status != billing.PaymentPending {
		return ErrSettlementInProgress
	}
	p.Status = billing.PaymentCompleted
	p.ReferenceID = referenceID
	return nil
}

func (t *memTx) PaymentForUpdate(_ context.Context, id uuid.UUID) (*billing.Payment, error) {
	p, ok := t.s.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	c := *p
	return &c, nil
}

func (t *memTx) PaymentsByReference(_ context.Context, refType billing.ReferenceType, referenceID uuid.UUID) ([]*billing.Payment, error) {
	var out []*billing.Payment
	for _, id := range t.s.paymentOrder {
		if p := t.s.payments[id]; p != nil && p.ReferenceType == refType && p.ReferenceID == referenceID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}
