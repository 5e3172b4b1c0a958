package models

import "time"

type Tenant struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User             *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	RoomID           *uint     `gorm:"index" json:"room_id"`
	Room             *Room     `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	FullName         string    `gorm:"not null" json:"full_name"`
	Phone            string    `json:"phone"`
	EmergencyContact string    `json:"emergency_contact"`
	CheckInDate      Date      `json:"check_in_date"`
	CheckOutDate     *Date     `json:"check_out_date"`
	DepositAmount    float64   `json:"deposit_amount"`
	IsActive         bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
