package model

import (
	"time"
)

// User represents the user model stored in the database.
// Every user belongs to exactly one organization.
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	OrganizationID uint      `json:"organization_id" gorm:"index;not null"`
	Name           string    `json:"name" gorm:"type:varchar(255);not null"`
	Email          string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password       string    `json:"-" gorm:"type:varchar(255);not null"`
	Role           Role      `json:"role" gorm:"type:varchar(20);default:'STAFF';not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
}
