package students

import (
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/domain/centers"
)

// StudentProfile links a student to the guardian user whose wallet funds the
// student's charges. Guardian and staff management live outside this service;
// only the billing-relevant shape is kept here.
type StudentProfile struct {
	ID             uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	GuardianUserID uuid.UUID       `json:"guardian_user_id" gorm:"type:uuid;not null;index"`
	BranchID       uuid.UUID       `json:"branch_id" gorm:"type:uuid;not null;index"`
	Branch         *centers.Branch `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	Name           string          `json:"name" gorm:"not null"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
