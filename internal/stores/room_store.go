package stores

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pg-manager/internal/models"
)

// RoomMutation edits a locked room in place; occupancy is the number of
// active tenants at the time the lock was taken.
type RoomMutation func(room *models.Room, occupancy int) error

// RoomStore abstracts room persistence. Occupancy is always computed from
// active tenants, never stored.
type RoomStore interface {
	// ListActive returns active rooms ordered by room number.
	ListActive(ctx context.Context) ([]models.Room, error)
	GetByID(ctx context.Context, id uint) (*models.Room, error)
	// Create persists a room; ErrDuplicate when the number is taken.
	Create(ctx context.Context, room *models.Room) error
	// Update locks the room row, applies mutate and saves the result.
	Update(ctx context.Context, id uint, mutate RoomMutation) (*models.Room, error)
	// Retire soft-deletes the room; ErrRoomOccupied while tenants live in it.
	Retire(ctx context.Context, id uint) error
	// Occupancy counts active tenants per room. No ids means every room.
	Occupancy(ctx context.Context, ids ...uint) (map[uint]int, error)
}

// GormRoomStore implements RoomStore using GORM.
type GormRoomStore struct{ DB *gorm.DB }

func (s *GormRoomStore) ListActive(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("room_number").
		Find(&rooms).Error
	return rooms, err
}

func (s *GormRoomStore) GetByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := s.DB.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *GormRoomStore) Create(ctx context.Context, room *models.Room) error {
	return translate(s.DB.WithContext(ctx).Omit(clause.Associations).Create(room).Error)
}

func (s *GormRoomStore) Update(ctx context.Context, id uint, mutate RoomMutation) (*models.Room, error) {
	var out *models.Room

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, occupancy, err := lockRoom(tx, id)
		if err != nil {
			return err
		}
		if err := mutate(room, occupancy); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(room).Error; err != nil {
			return translate(err)
		}
		out = room.WithOccupancy(occupancy)
		return nil
	})

	return out, err
}

func (s *GormRoomStore) Retire(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, occupancy, err := lockRoom(tx, id)
		if err != nil {
			return err
		}
		if !room.IsActive {
			return ErrNotFound
		}
		if occupancy > 0 {
			return ErrRoomOccupied
		}
		return tx.Model(room).Update("is_active", false).Error
	})
}

func (s *GormRoomStore) Occupancy(ctx context.Context, ids ...uint) (map[uint]int, error) {
	var rows []struct {
		RoomID uint
		N      int
	}

	q := s.DB.WithContext(ctx).Model(&models.Tenant{}).
		Select("room_id, COUNT(*) AS n").
		Where("is_active = ? AND room_id IS NOT NULL", true)
	if len(ids) > 0 {
		q = q.Where("room_id IN ?", ids)
	}
	if err := q.Group("room_id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[uint]int, len(rows))
	for _, r := range rows {
		out[r.RoomID] = r.N
	}
	return out, nil
}

// lockRoom takes a row lock on the room (a no-op on SQLite, which serializes
// writers anyway) and counts its active tenants under that lock.
func lockRoom(tx *gorm.DB, id uint) (*models.Room, int, error) {
	var room models.Room
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, id).Error; err != nil {
		return nil, 0, err
	}

	var n int64
	if err := tx.Model(&models.Tenant{}).
		Where("room_id = ? AND is_active = ?", id, true).
		Count(&n).Error; err != nil {
		return nil, 0, err
	}
	return &room, int(n), nil
}

// reserveSlot checks, under the room lock, that one more active tenant fits.
func reserveSlot(tx *gorm.DB, roomID uint) error {
	room, occupancy, err := lockRoom(tx, roomID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRoomNotFound
	}
	if err != nil {
		return err
	}
	if !room.IsActive {
		return ErrRoomRetired
	}
	if occupancy >= room.Capacity {
		return ErrRoomFull
	}
	return nil
}
