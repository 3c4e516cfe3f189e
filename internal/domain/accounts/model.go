package accounts

import (
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/domain/money"
)

type OwnerType string

const (
	OwnerUser   OwnerType = "USER"
	OwnerBranch OwnerType = "BRANCH"
	OwnerSystem OwnerType = "SYSTEM"
)

// Well-known owner ids of the two SYSTEM accounts. CashIntake mirrors money
// entering the platform from outside (cash at the desk, wallet top-ups);
// Revenue collects the system fee skim.
var (
	CashIntakeOwnerID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	RevenueOwnerID    = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

// Account is a wallet (user-owned) or cashbox (branch-owned) balance row.
// Only the ledger mutates it, always inside the settlement transaction.
type Account struct {
	ID        uuid.UUID   `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OwnerID   uuid.UUID   `json:"owner_id" gorm:"type:uuid;not null;uniqueIndex:idx_accounts_owner"`
	OwnerType OwnerType   `json:"owner_type" gorm:"type:varchar(20);not null;uniqueIndex:idx_accounts_owner"`
	Balance   money.Money `json:"balance" gorm:"not null"`
	Version   int64       `json:"version" gorm:"not null;default:0"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// IsSystem reports whether the account mirrors money outside the platform.
// System accounts are exempt from the debit guardrails.
func (a *Account) IsSystem() bool {
	return a.OwnerType == OwnerSystem
}
