package model

import (
	"time"
)

// Organization represents a tenant owning its own users and financial logs
type Organization struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Slug      string    `json:"slug" gorm:"type:varchar(50);uniqueIndex;not null"` // lowercase, URL-safe
	IsCenter  bool      `json:"is_center" gorm:"default:false;not null"`
	Address   *string   `json:"address,omitempty" gorm:"type:text"`
	Phone     *string   `json:"phone,omitempty" gorm:"type:varchar(50)"`
	Email     *string   `json:"email,omitempty" gorm:"type:varchar(100)"`
	Website   *string   `json:"website,omitempty" gorm:"type:varchar(100)"`
	Logo      *string   `json:"logo,omitempty" gorm:"type:text"` // object storage key
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Users         []User         `json:"users,omitempty" gorm:"foreignKey:OrganizationID"`
	FinancialLogs []FinancialLog `json:"financial_logs,omitempty" gorm:"foreignKey:OrganizationID"`
}
