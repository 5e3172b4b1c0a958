package services

import (
	"context"
	"errors"
	"strings"

	"pg-manager/internal/apperr"
	"pg-manager/internal/models"
	"pg-manager/internal/stores"
)

type RoomInput struct {
	RoomNumber  string          `json:"room_number"`
	Floor       int             `json:"floor"`
	RoomType    models.RoomType `json:"room_type"`
	Capacity    int             `json:"capacity"`
	MonthlyRent float64         `json:"monthly_rent"`
}

// RoomPatch holds the fields of a partial room update; nil means unchanged.
type RoomPatch struct {
	RoomNumber  *string          `json:"room_number"`
	Floor       *int             `json:"floor"`
	RoomType    *models.RoomType `json:"room_type"`
	Capacity    *int             `json:"capacity"`
	MonthlyRent *float64         `json:"monthly_rent"`
}

type RoomFilter struct {
	Page
	// Available keeps only rooms whose availability equals the value.
	Available *bool
	// Occupied keeps only rooms with at least one active tenant.
	Occupied bool
}

type RoomService struct {
	Base
	Rooms stores.RoomStore
}

func NewRoomService(base Base, rooms stores.RoomStore) *RoomService {
	return &RoomService{Base: base, Rooms: rooms}
}

func (s *RoomService) List(ctx context.Context, f RoomFilter) ([]models.Room, error) {
	rooms, err := s.Rooms.ListActive(ctx)
	if err != nil {
		return nil, storeErr(err, "room")
	}
	occ, err := s.Rooms.Occupancy(ctx)
	if err != nil {
		return nil, storeErr(err, "room")
	}

	out := make([]models.Room, 0, len(rooms))
	for i := range rooms {
		r := rooms[i].WithOccupancy(occ[rooms[i].ID])
		if f.Available != nil && r.Available != *f.Available {
			continue
		}
		if f.Occupied && r.Occupancy == 0 {
			continue
		}
		out = append(out, *r)
	}

	start, end := f.apply(len(out))
	return out[start:end], nil
}

// Get returns an active room. Retired rooms are reported as not found.
func (s *RoomService) Get(ctx context.Context, id uint) (*models.Room, error) {
	room, err := s.Rooms.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "room")
	}
	if !room.IsActive {
		return nil, apperr.NotFound("room")
	}

	occ, err := s.Rooms.Occupancy(ctx, id)
	if err != nil {
		return nil, storeErr(err, "room")
	}
	return room.WithOccupancy(occ[id]), nil
}

func (s *RoomService) Create(ctx context.Context, in RoomInput) (*models.Room, error) {
	in.RoomNumber = strings.TrimSpace(in.RoomNumber)
	if err := validateRoom(in.RoomNumber, in.RoomType, in.Capacity, in.MonthlyRent); err != nil {
		return nil, err
	}

	room := &models.Room{
		RoomNumber:  in.RoomNumber,
		Floor:       in.Floor,
		RoomType:    in.RoomType,
		Capacity:    in.Capacity,
		MonthlyRent: in.MonthlyRent,
		IsActive:    true,
	}
	if err := s.Rooms.Create(ctx, room); err != nil {
		if errors.Is(err, stores.ErrDuplicate) {
			return nil, apperr.Conflict("room number %s already exists", in.RoomNumber)
		}
		return nil, storeErr(err, "room")
	}

	s.invalidateOccupancy(ctx)
	return room.WithOccupancy(0), nil
}

// Update applies patch under the room's row lock, so a capacity cut cannot
// race a tenant assignment.
func (s *RoomService) Update(ctx context.Context, id uint, patch RoomPatch) (*models.Room, error) {
	room, err := s.Rooms.Update(ctx, id, func(r *models.Room, occupancy int) error {
		if !r.IsActive {
			return apperr.NotFound("room")
		}
		if patch.RoomNumber != nil {
			r.RoomNumber = strings.TrimSpace(*patch.RoomNumber)
		}
		if patch.Floor != nil {
			r.Floor = *patch.Floor
		}
		if patch.RoomType != nil {
			r.RoomType = *patch.RoomType
		}
		if patch.Capacity != nil {
			r.Capacity = *patch.Capacity
		}
		if patch.MonthlyRent != nil {
			r.MonthlyRent = *patch.MonthlyRent
		}

		if err := validateRoom(r.RoomNumber, r.RoomType, r.Capacity, r.MonthlyRent); err != nil {
			return err
		}
		if r.Capacity < occupancy {
			return apperr.Validation("capacity %d is below current occupancy %d", r.Capacity, occupancy)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, stores.ErrDuplicate) {
			return nil, apperr.Conflict("room number already exists")
		}
		return nil, storeErr(err, "room")
	}

	s.invalidateOccupancy(ctx)
	return room, nil
}

// Delete retires the room. Rooms with active tenants cannot be retired.
func (s *RoomService) Delete(ctx context.Context, id uint) error {
	if err := s.Rooms.Retire(ctx, id); err != nil {
		return storeErr(err, "room")
	}
	s.invalidateOccupancy(ctx)
	return nil
}

func validateRoom(number string, typ models.RoomType, capacity int, rent float64) error {
	switch {
	case number == "":
		return apperr.Validation("room_number is required")
	case !typ.Valid():
		return apperr.Validation("room_type must be one of Single, Double, Triple")
	case capacity <= 0:
		return apperr.Validation("capacity must be greater than zero")
	case rent < 0:
		return apperr.Validation("monthly_rent cannot be negative")
	}
	return nil
}
