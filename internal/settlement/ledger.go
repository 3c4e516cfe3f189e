package settlement

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"lms-backend/internal/domain/money"
	"lms-backend/internal/settings"
)

// Ledger performs the atomic balance mutations of a settlement. It always
// composes into the caller's transaction and relies on the row lock taken by
// AccountForUpdate to serialize concurrent movements on the same account.
type Ledger struct{}

// Debit decreases the account balance by amount and returns the new balance.
// Guardrails: amount must not exceed rails.MaxDebit unless systemFee is set,
// and the resulting balance must not fall below -rails.MaxNegativeBalance.
// SYSTEM accounts mirror money outside the platform and skip both checks.
func (Ledger) Debit(ctx context.Context, tx Tx, accountID uuid.UUID, amount money.Money, rails settings.Guardrails, systemFee bool) (money.Money, error) {
	if !amount.IsPositive() {
		return money.Money{}, fmt.Errorf("%w: debit amount must be positive", ErrValidation)
	}

	acc, err := tx.AccountForUpdate(ctx, accountID)
	if err != nil {
		return money.Money{}, err
	}

	if !acc.IsSystem() {
		if !systemFee && amount.GreaterThan(rails.MaxDebit) {
			return money.Money{}, fmt.Errorf("%w: %s > %s", ErrLimitExceeded, amount, rails.MaxDebit)
		}
		if acc.Balance.Sub(amount).LessThan(rails.MaxNegativeBalance.Neg()) {
			return money.Money{}, fmt.Errorf("%w: balance %s, debit %s", ErrInsufficientFunds, acc.Balance, amount)
		}
	}

	acc.Balance = acc.Balance.Sub(amount)
	if err := tx.SaveAccount(ctx, acc); err != nil {
		return money.Money{}, err
	}
	return acc.Balance, nil
}

// Credit increases the account balance by amount; there is no upper bound.
func (Ledger) Credit(ctx context.Context, tx Tx, accountID uuid.UUID, amount money.Money) (money.Money, error) {
	if !amount.IsPositive() {
		return money.Money{}, fmt.Errorf("%w: credit amount must be positive", ErrValidation)
	}

	acc, err := tx.AccountForUpdate(ctx, accountID)
	if err != nil {
		return money.Money{}, err
	}

	acc.Balance = acc.Balance.Add(amount)
	if err := tx.SaveAccount(ctx, acc); err != nil {
		return money.Money{}, err
	}
	return acc.Balance, nil
}
