package stores

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pg-manager/internal/models"
)

type TenantFilter struct {
	ActiveOnly bool
	Offset     int
	Limit      int
}

// TenantStore abstracts tenant persistence. Every method that can place a
// tenant into a room re-checks capacity under the room's row lock.
type TenantStore interface {
	List(ctx context.Context, f TenantFilter) ([]models.Tenant, error)
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
	// Register creates the login account and the tenant profile together.
	Register(ctx context.Context, user *models.User, tenant *models.Tenant) error
	// Update loads the tenant with its user, applies mutate and persists both.
	Update(ctx context.Context, id uint, mutate func(t *models.Tenant) error) (*models.Tenant, error)
	// Checkout deactivates the tenant; ErrTenantInactive if already done.
	Checkout(ctx context.Context, id uint, on models.Date) (*models.Tenant, error)
}

// GormTenantStore implements TenantStore using GORM.
type GormTenantStore struct{ DB *gorm.DB }

func (s *GormTenantStore) List(ctx context.Context, f TenantFilter) ([]models.Tenant, error) {
	q := s.DB.WithContext(ctx).Preload("User").Preload("Room").Order("id")
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var tenants []models.Tenant
	err := paginate(q, f.Offset, f.Limit).Find(&tenants).Error
	return tenants, err
}

func (s *GormTenantStore) GetByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var t models.Tenant
	if err := s.DB.WithContext(ctx).Preload("User").Preload("Room").First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *GormTenantStore) Register(ctx context.Context, user *models.User, tenant *models.Tenant) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tenant.RoomID != nil {
			if err := reserveSlot(tx, *tenant.RoomID); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return translate(err)
		}

		tenant.UserID = user.ID
		if err := tx.Omit(clause.Associations).Create(tenant).Error; err != nil {
			return translate(err)
		}
		tenant.User = user
		return nil
	})
}

func (s *GormTenantStore) Update(ctx context.Context, id uint, mutate func(t *models.Tenant) error) (*models.Tenant, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tenant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error; err != nil {
			return err
		}
		var u models.User
		if err := tx.First(&u, t.UserID).Error; err != nil {
			return err
		}
		t.User = &u

		prevRoom, prevEmail := t.RoomID, u.Email
		if err := mutate(&t); err != nil {
			return err
		}

		if t.IsActive && t.RoomID != nil && !sameRoom(prevRoom, t.RoomID) {
			if err := reserveSlot(tx, *t.RoomID); err != nil {
				return err
			}
		}

		if t.User.Email != prevEmail {
			if err := tx.Model(&u).Update("email", t.User.Email).Error; err != nil {
				return translate(err)
			}
		}

		return tx.Omit(clause.Associations).Save(&t).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *GormTenantStore) Checkout(ctx context.Context, id uint, on models.Date) (*models.Tenant, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tenant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error; err != nil {
			return err
		}
		if !t.IsActive {
			return ErrTenantInactive
		}

		updates := map[string]interface{}{"is_active": false}
		if t.CheckOutDate == nil {
			updates["check_out_date"] = on
		}
		return tx.Model(&t).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func sameRoom(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
