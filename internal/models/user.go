package models

import (
	"time"
)

// User represents the users table in database.
// Every tenant logs in through exactly one User; admins have no Tenant row.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null" json:"role"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	Tenant       *Tenant   `gorm:"foreignKey:UserID" json:"tenant,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
