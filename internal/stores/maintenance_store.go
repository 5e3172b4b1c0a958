package stores

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pg-manager/internal/models"
)

type MaintenanceFilter struct {
	TenantID *uint
	Status   *models.MaintenanceStatus
	Priority *models.MaintenancePriority
	Category *models.MaintenanceCategory
	Offset   int
	Limit    int
}

type MaintenanceStore interface {
	Create(ctx context.Context, r *models.MaintenanceRequest) error
	GetByID(ctx context.Context, id uint) (*models.MaintenanceRequest, error)
	List(ctx context.Context, f MaintenanceFilter) ([]models.MaintenanceRequest, error)
	Save(ctx context.Context, r *models.MaintenanceRequest) error
	// CountBy groups all requests by "status" or "category".
	CountBy(ctx context.Context, column string) (map[string]int64, error)
	// ListResolved returns Resolved/Closed requests that carry a resolved date.
	ListResolved(ctx context.Context) ([]models.MaintenanceRequest, error)
}

// GormMaintenanceStore implements MaintenanceStore using GORM.
type GormMaintenanceStore struct{ DB *gorm.DB }

func (s *GormMaintenanceStore) Create(ctx context.Context, r *models.MaintenanceRequest) error {
	return s.DB.WithContext(ctx).Omit(clause.Associations).Create(r).Error
}

func (s *GormMaintenanceStore) GetByID(ctx context.Context, id uint) (*models.MaintenanceRequest, error) {
	var r models.MaintenanceRequest
	if err := s.DB.WithContext(ctx).Preload("Tenant").First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *GormMaintenanceStore) List(ctx context.Context, f MaintenanceFilter) ([]models.MaintenanceRequest, error) {
	q := s.DB.WithContext(ctx).Order("request_date DESC, id DESC")
	if f.TenantID != nil {
		q = q.Where("tenant_id = ?", *f.TenantID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Priority != nil {
		q = q.Where("priority = ?", *f.Priority)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}

	var out []models.MaintenanceRequest
	err := paginate(q, f.Offset, f.Limit).Find(&out).Error
	return out, err
}

func (s *GormMaintenanceStore) Save(ctx context.Context, r *models.MaintenanceRequest) error {
	return s.DB.WithContext(ctx).Omit(clause.Associations).Save(r).Error
}

func (s *GormMaintenanceStore) CountBy(ctx context.Context, column string) (map[string]int64, error) {
	if column != "status" && column != "category" {
		return nil, fmt.Errorf("cannot group maintenance requests by %q", column)
	}

	var rows []struct {
		Label string
		N     int64
	}
	err := s.DB.WithContext(ctx).Model(&models.MaintenanceRequest{}).
		Select(column + " AS label, COUNT(*) AS n").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Label] = r.N
	}
	return out, nil
}

func (s *GormMaintenanceStore) ListResolved(ctx context.Context) ([]models.MaintenanceRequest, error) {
	var out []models.MaintenanceRequest
	err := s.DB.WithContext(ctx).
		Where("status IN ? AND resolved_date IS NOT NULL",
			[]models.MaintenanceStatus{models.MaintenanceResolved, models.MaintenanceClosed}).
		Find(&out).Error
	return out, err
}
