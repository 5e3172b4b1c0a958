package services

import (
	"context"
	"errors"
	"strings"

	"pg-manager/internal/access"
	"pg-manager/internal/apperr"
	"pg-manager/internal/events"
	"pg-manager/internal/models"
	"pg-manager/internal/stores"
	"pg-manager/internal/user"
)

const temporaryPasswordLength = 12

type TenantInput struct {
	Email            string       `json:"email"`
	FullName         string       `json:"full_name"`
	Phone            string       `json:"phone"`
	EmergencyContact string       `json:"emergency_contact"`
	RoomID           *uint        `json:"room_id"`
	CheckInDate      *models.Date `json:"check_in_date"`
	DepositAmount    float64      `json:"deposit_amount"`
}

type TenantPatch struct {
	Email            *string      `json:"email"`
	FullName         *string      `json:"full_name"`
	Phone            *string      `json:"phone"`
	EmergencyContact *string      `json:"emergency_contact"`
	RoomID           *uint        `json:"room_id"`
	CheckInDate      *models.Date `json:"check_in_date"`
	DepositAmount    *float64     `json:"deposit_amount"`
}

// Registration is returned once; the temporary password is not stored in
// clear anywhere.
type Registration struct {
	*models.Tenant
	TemporaryPassword string `json:"temporary_password"`
}

type TenantListFilter struct {
	Page
	ActiveOnly bool
}

type TenantService struct {
	Base
	Tenants stores.TenantStore
	Hasher  user.PasswordHasher
}

func NewTenantService(base Base, tenants stores.TenantStore, hasher user.PasswordHasher) *TenantService {
	return &TenantService{Base: base, Tenants: tenants, Hasher: hasher}
}

// Register creates the tenant's login account and profile in one
// transaction. When a room is given its capacity is checked under lock.
func (s *TenantService) Register(ctx context.Context, in TenantInput) (*Registration, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return nil, apperr.Validation("full_name is required")
	}
	if in.DepositAmount < 0 {
		return nil, apperr.Validation("deposit_amount cannot be negative")
	}

	password, err := user.GeneratePassword(temporaryPasswordLength)
	if err != nil {
		return nil, apperr.Internal(err, "could not generate password")
	}
	hash, err := s.Hasher.Hash([]byte(password))
	if err != nil {
		return nil, apperr.Internal(err, "could not hash password")
	}

	checkIn := models.DateOf(s.now())
	if in.CheckInDate != nil && !in.CheckInDate.IsZero() {
		checkIn = *in.CheckInDate
	}

	account := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleTenant,
		IsActive:     true,
	}
	tenant := &models.Tenant{
		RoomID:           in.RoomID,
		FullName:         in.FullName,
		Phone:            strings.TrimSpace(in.Phone),
		EmergencyContact: strings.TrimSpace(in.EmergencyContact),
		CheckInDate:      checkIn,
		DepositAmount:    in.DepositAmount,
		IsActive:         true,
	}

	if err := s.Tenants.Register(ctx, account, tenant); err != nil {
		if errors.Is(err, stores.ErrDuplicate) {
			return nil, apperr.Conflict("email %s is already registered", email)
		}
		return nil, storeErr(err, "tenant")
	}

	if tenant.RoomID != nil {
		s.invalidateOccupancy(ctx)
	}
	s.emit(ctx, events.SubjectTenantRegistered, map[string]interface{}{
		"tenant_id": tenant.ID,
		"user_id":   account.ID,
		"room_id":   tenant.RoomID,
	})

	return &Registration{Tenant: tenant, TemporaryPassword: password}, nil
}

func (s *TenantService) Update(ctx context.Context, id uint, patch TenantPatch) (*models.Tenant, error) {
	var email string
	if patch.Email != nil {
		e, err := normalizeEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		email = e
	}

	tenant, err := s.Tenants.Update(ctx, id, func(t *models.Tenant) error {
		if patch.Email != nil {
			t.User.Email = email
		}
		if patch.FullName != nil {
			name := strings.TrimSpace(*patch.FullName)
			if name == "" {
				return apperr.Validation("full_name cannot be empty")
			}
			t.FullName = name
		}
		if patch.Phone != nil {
			t.Phone = strings.TrimSpace(*patch.Phone)
		}
		if patch.EmergencyContact != nil {
			t.EmergencyContact = strings.TrimSpace(*patch.EmergencyContact)
		}
		if patch.RoomID != nil {
			t.RoomID = patch.RoomID
		}
		if patch.CheckInDate != nil {
			t.CheckInDate = *patch.CheckInDate
		}
		if patch.DepositAmount != nil {
			if *patch.DepositAmount < 0 {
				return apperr.Validation("deposit_amount cannot be negative")
			}
			t.DepositAmount = *patch.DepositAmount
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, stores.ErrDuplicate) {
			return nil, apperr.Conflict("email %s is already registered", email)
		}
		return nil, storeErr(err, "tenant")
	}

	if patch.RoomID != nil {
		s.invalidateOccupancy(ctx)
	}
	return tenant, nil
}

// Checkout ends the tenant's stay and frees the room slot. The login
// account is left active.
func (s *TenantService) Checkout(ctx context.Context, id uint) (*models.Tenant, error) {
	tenant, err := s.Tenants.Checkout(ctx, id, models.DateOf(s.now()))
	if err != nil {
		return nil, storeErr(err, "tenant")
	}

	s.invalidateOccupancy(ctx)
	s.emit(ctx, events.SubjectTenantCheckedOut, map[string]interface{}{
		"tenant_id":      tenant.ID,
		"room_id":        tenant.RoomID,
		"check_out_date": tenant.CheckOutDate,
	})
	return tenant, nil
}

func (s *TenantService) List(ctx context.Context, f TenantListFilter) ([]models.Tenant, error) {
	tenants, err := s.Tenants.List(ctx, stores.TenantFilter{
		ActiveOnly: f.ActiveOnly,
		Offset:     f.Offset,
		Limit:      f.Limit,
	})
	if err != nil {
		return nil, storeErr(err, "tenant")
	}
	return tenants, nil
}

// Get returns a tenant record. Tenants may only read their own.
func (s *TenantService) Get(ctx context.Context, p access.Principal, id uint) (*models.Tenant, error) {
	if !p.CanSeeTenant(id) {
		return nil, apperr.Forbidden("not allowed to view this tenant")
	}
	tenant, err := s.Tenants.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "tenant")
	}
	return tenant, nil
}

func normalizeEmail(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", apperr.Validation("email is required")
	}
	email, err := user.NormalizeEmail(raw)
	if err != nil {
		return "", apperr.Validation("email %q is not a valid address", raw)
	}
	return email, nil
}
