package models

import "time"

type RoomType string

const (
	RoomSingle RoomType = "Single"
	RoomDouble RoomType = "Double"
	RoomTriple RoomType = "Triple"
)

func (t RoomType) Valid() bool {
	switch t {
	case RoomSingle, RoomDouble, RoomTriple:
		return true
	}
	return false
}

// Room is retired rather than deleted: IsActive=false hides it from every listing.
// Occupancy and Available are filled on read from the active tenants that
// reference the room; they are never persisted.
type Room struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoomNumber  string    `gorm:"uniqueIndex;not null;type:varchar(50)" json:"room_number"`
	Floor       int       `json:"floor"`
	RoomType    RoomType  `gorm:"type:varchar(20);not null" json:"room_type"`
	Capacity    int       `gorm:"not null" json:"capacity"`
	MonthlyRent float64   `json:"monthly_rent"`
	IsActive    bool      `gorm:"not null;index" json:"is_active"`
	Tenants     []Tenant  `gorm:"foreignKey:RoomID" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Occupancy int  `gorm:"-" json:"occupancy"`
	Available bool `gorm:"-" json:"available"`
}

// WithOccupancy sets the derived occupancy fields.
func (r *Room) WithOccupancy(n int) *Room {
	r.Occupancy = n
	r.Available = n < r.Capacity
	return r
}
