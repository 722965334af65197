package model

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"
)

// LogType distinguishes income from expense entries.
type LogType string

const (
	LogTypeIncome  LogType = "INCOME"
	LogTypeExpense LogType = "EXPENSE"
)

// Valid reports whether t is a known log type.
func (t LogType) Valid() bool {
	return t == LogTypeIncome || t == LogTypeExpense
}

// ErrTotalMismatch is returned when a log's total amount does not equal
// the sum of its item subtotals.
var ErrTotalMismatch = errors.New("total amount does not match sum of item subtotals")

// FinancialLog represents one income or expense record. A soft-deleted
// (archived) log keeps its row but is excluded from aggregations.
type FinancialLog struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	OrganizationID  uint           `json:"organization_id" gorm:"index;not null"`
	UserID          uint           `json:"user_id" gorm:"index;not null"`
	Type            LogType        `json:"type" gorm:"type:varchar(10);not null"`
	Description     string         `json:"description" gorm:"type:text;not null"`
	TotalAmount     float64        `json:"total_amount" gorm:"type:numeric(20,2);not null"`
	TransactionDate *time.Time     `json:"transaction_date,omitempty"`
	CreatedAt       time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	User         *User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items        []LogItem     `json:"items,omitempty" gorm:"foreignKey:LogID;constraint:OnDelete:CASCADE"`
	Attachments  []Attachment  `json:"attachments,omitempty" gorm:"foreignKey:LogID;constraint:OnDelete:CASCADE"`
}

// EffectiveDate is the timestamp used for time-window bucketing: the
// transaction date when recorded, otherwise the creation time.
func (l *FinancialLog) EffectiveDate() time.Time {
	if l.TransactionDate != nil {
		return *l.TransactionDate
	}
	return l.CreatedAt
}

// Archived reports whether the log has been soft-deleted.
func (l *FinancialLog) Archived() bool {
	return l.DeletedAt.Valid
}

// ValidateTotal checks the writer invariant: when line items are present
// the header total must equal the sum of their subtotals (to the cent).
func (l *FinancialLog) ValidateTotal(items []LogItem) error {
	if len(items) == 0 {
		return nil
	}
	var sum float64
	for _, it := range items {
		sum += it.SubTotal
	}
	if math.Abs(sum-l.TotalAmount) > 0.005 {
		return ErrTotalMismatch
	}
	return nil
}
