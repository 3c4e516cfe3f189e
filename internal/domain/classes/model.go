package classes

import (
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/domain/centers"
	"lms-backend/internal/domain/money"
)

type Class struct {
	ID         uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BranchID   uuid.UUID       `json:"branch_id" gorm:"type:uuid;not null;index"`
	Branch     *centers.Branch `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	Name       string          `json:"name" gorm:"not null"`
	MonthlyFee money.Money     `json:"monthly_fee" gorm:"not null"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ClassSession is a single billable lesson of a class.
type ClassSession struct {
	ID        uuid.UUID   `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClassID   uuid.UUID   `json:"class_id" gorm:"type:uuid;not null;index"`
	Class     *Class      `json:"class,omitempty" gorm:"foreignKey:ClassID"`
	StartsAt  time.Time   `json:"starts_at" gorm:"not null;index"`
	Price     money.Money `json:"price" gorm:"not null"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
