package stores

import (
	"context"

	"gorm.io/gorm"

	"pg-manager/internal/models"
)

// UserStore abstracts user persistence.
type UserStore interface {
	// FindByEmail returns a user if it exists, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// CreateUser persists a new user; ErrDuplicate when the email is taken.
	CreateUser(ctx context.Context, u *models.User) error
	// GetByID loads the user with its tenant profile and room, if any.
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// GormUserStore implements UserStore using GORM.
type GormUserStore struct{ DB *gorm.DB }

func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormUserStore) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.DB.WithContext(ctx).Omit("Tenant").Create(u).Error)
}

func (s *GormUserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Preload("Tenant.Room").First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
