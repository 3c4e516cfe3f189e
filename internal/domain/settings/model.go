package settings

import (
	"time"

	"gorm.io/datatypes"
)

type ValueType string

const (
	TypeString  ValueType = "string"
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
	TypeJSON    ValueType = "json"
)

// Keys the billing engine reads. Absent rows fall back to the most
// conservative defaults (zero fee, zero limits).
const (
	KeyFees               = "fees"
	KeyMaxDebit           = "maxDebit"
	KeyMaxNegativeBalance = "maxNegativeBalance"
)

// Setting is one typed key/value row. Updated in place, no history.
type Setting struct {
	Key       string         `json:"key" gorm:"primaryKey;type:varchar(100)"`
	Value     datatypes.JSON `json:"value" gorm:"not null"`
	Type      ValueType      `json:"type" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
