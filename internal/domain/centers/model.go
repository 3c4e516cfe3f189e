package centers

import (
	"time"

	"github.com/google/uuid"
)

// Branch is a physical location of an education center. Each branch owns one
// cashbox account.
type Branch struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
