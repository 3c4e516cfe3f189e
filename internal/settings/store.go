// Package settings exposes the runtime-tunable billing limits through a
// process-scoped cache over the settings table.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"lms-backend/internal/domain/money"
	"lms-backend/internal/domain/settings"
)

var ErrInvalidSetting = errors.New("invalid setting value")

// Repository is the storage behind the cache. Get returns (nil, nil) when the
// key has never been written.
type Repository interface {
	Get(ctx context.Context, key string) (*settings.Setting, error)
	Upsert(ctx context.Context, s *settings.Setting) error
}

// Guardrails bundles the limits a settlement enforces, read once per attempt.
type Guardrails struct {
	Fees               decimal.Decimal
	MaxDebit           money.Money
	MaxNegativeBalance money.Money
}

// Store caches settings reads and invalidates synchronously on every write in
// this process. Cross-process staleness is bounded by the next read of a key
// that was never cached here.
type Store struct {
	repo Repository

	mu    sync.RWMutex
	cache map[string]settings.Setting
}

func NewStore(repo Repository) *Store {
	return &Store{
		repo:  repo,
		cache: make(map[string]settings.Setting),
	}
}

// Get returns the setting for key, or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, key string) (*settings.Setting, error) {
	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return &cached, nil
	}

	row, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("settings get %q: %w", key, err)
	}
	if row == nil {
		return nil, nil
	}

	s.mu.Lock()
	s.cache[key] = *row
	s.mu.Unlock()
	return row, nil
}

// Set validates and upserts the setting, then replaces the cached entry.
func (s *Store) Set(ctx context.Context, key string, value datatypes.JSON, typ settings.ValueType) error {
	if err := validate(key, value); err != nil {
		return err
	}

	row := &settings.Setting{Key: key, Value: value, Type: typ}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return fmt.Errorf("settings set %q: %w", key, err)
	}

	s.mu.Lock()
	s.cache[key] = *row
	s.mu.Unlock()
	return nil
}

// Fees returns the system fee percentage, defaulting to 0 when unset.
// Billing must never fail because a settings row is missing.
func (s *Store) Fees(ctx context.Context) (decimal.Decimal, error) {
	row, err := s.Get(ctx, settings.KeyFees)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if row == nil {
		return decimal.Zero, nil
	}
	return parseDecimal(row.Value)
}

// MaxDebit returns the single-debit ceiling, defaulting to 0 (nothing may be
// debited) when unset.
func (s *Store) MaxDebit(ctx context.Context) (money.Money, error) {
	return s.moneySetting(ctx, settings.KeyMaxDebit)
}

// MaxNegativeBalance returns how far below zero a balance may go, defaulting
// to 0 (no overdraft) when unset.
func (s *Store) MaxNegativeBalance(ctx context.Context) (money.Money, error) {
	return s.moneySetting(ctx, settings.KeyMaxNegativeBalance)
}

// Guardrails reads the three billing limits in one go.
func (s *Store) Guardrails(ctx context.Context) (Guardrails, error) {
	fees, err := s.Fees(ctx)
	if err != nil {
		return Guardrails{}, err
	}
	maxDebit, err := s.MaxDebit(ctx)
	if err != nil {
		return Guardrails{}, err
	}
	maxNeg, err := s.MaxNegativeBalance(ctx)
	if err != nil {
		return Guardrails{}, err
	}
	return Guardrails{Fees: fees, MaxDebit: maxDebit, MaxNegativeBalance: maxNeg}, nil
}

func (s *Store) moneySetting(ctx context.Context, key string) (money.Money, error) {
	row, err := s.Get(ctx, key)
	if err != nil {
		return money.Money{}, err
	}
	if row == nil {
		return money.Zero(), nil
	}
	return parseMoney(row.Value)
}

func validate(key string, value datatypes.JSON) error {
	switch key {
	case settings.KeyFees:
		d, err := parseDecimal(value)
		if err != nil {
			return err
		}
		if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: %s must be between 0 and 100", ErrInvalidSetting, key)
		}
	case settings.KeyMaxDebit, settings.KeyMaxNegativeBalance:
		m, err := parseMoney(value)
		if err != nil {
			return err
		}
		if m.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidSetting, key)
		}
	}
	return nil
}

// parseDecimal accepts both quoted ("5.5") and bare (5.5) JSON numbers.
func parseDecimal(raw datatypes.JSON) (decimal.Decimal, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidSetting, string(raw))
	}
	return d, nil
}

func parseMoney(raw datatypes.JSON) (money.Money, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	m, err := money.Parse(s)
	if err != nil {
		return money.Money{}, fmt.Errorf("%w: %q", ErrInvalidSetting, string(raw))
	}
	return m, nil
}
