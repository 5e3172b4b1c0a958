package stores

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pg-manager/internal/models"
)

// PaymentFilter narrows payment listings; From/To bound payment_date inclusively.
type PaymentFilter struct {
	TenantID *uint
	Status   *models.PaymentStatus
	From     *models.Date
	To       *models.Date
	Month    *models.Date
	Offset   int
	Limit    int
}

type PaymentStore interface {
	// Create persists a payment; ErrDuplicate if the tenant already has one for the month.
	Create(ctx context.Context, p *models.RentPayment) error
	GetByID(ctx context.Context, id uint) (*models.RentPayment, error)
	List(ctx context.Context, f PaymentFilter) ([]models.RentPayment, error)
	// Review moves a Pending payment to status; ErrStaleStatus if it is no longer Pending.
	Review(ctx context.Context, id uint, status models.PaymentStatus, remarks *string) (*models.RentPayment, error)
}

// GormPaymentStore implements PaymentStore using GORM.
type GormPaymentStore struct{ DB *gorm.DB }

func (s *GormPaymentStore) Create(ctx context.Context, p *models.RentPayment) error {
	return translate(s.DB.WithContext(ctx).Omit(clause.Associations).Create(p).Error)
}

func (s *GormPaymentStore) GetByID(ctx context.Context, id uint) (*models.RentPayment, error) {
	var p models.RentPayment
	if err := s.DB.WithContext(ctx).Preload("Tenant").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormPaymentStore) List(ctx context.Context, f PaymentFilter) ([]models.RentPayment, error) {
	q := s.DB.WithContext(ctx).Order("payment_month DESC, id DESC")
	if f.TenantID != nil {
		q = q.Where("tenant_id = ?", *f.TenantID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.From != nil {
		q = q.Where("payment_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("payment_date <= ?", *f.To)
	}
	if f.Month != nil {
		q = q.Where("payment_month = ?", f.Month.Month())
	}

	var payments []models.RentPayment
	err := paginate(q, f.Offset, f.Limit).Find(&payments).Error
	return payments, err
}

func (s *GormPaymentStore) Review(ctx context.Context, id uint, status models.PaymentStatus, remarks *string) (*models.RentPayment, error) {
	updates := map[string]interface{}{"status": status}
	if remarks != nil {
		updates["remarks"] = *remarks
	}

	res := s.DB.WithContext(ctx).Model(&models.RentPayment{}).
		Where("id = ? AND status = ?", id, models.PaymentPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStaleStatus
	}
	return s.GetByID(ctx, id)
}
