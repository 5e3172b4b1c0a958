package services

import (
	"context"
	"strings"

	"pg-manager/internal/access"
	"pg-manager/internal/apperr"
	"pg-manager/internal/events"
	"pg-manager/internal/models"
	"pg-manager/internal/stores"
)

type MaintenanceInput struct {
	Category    models.MaintenanceCategory `json:"category"`
	Priority    models.MaintenancePriority `json:"priority"`
	Description string                     `json:"description"`
	ImagePath   *string                    `json:"image_path"`
}

type MaintenancePatch struct {
	Status          *models.MaintenanceStatus   `json:"status"`
	Priority        *models.MaintenancePriority `json:"priority"`
	ResolutionNotes *string                     `json:"resolution_notes"`
}

type MaintenanceListFilter struct {
	Page
	Status   *models.MaintenanceStatus
	Priority *models.MaintenancePriority
	Category *models.MaintenanceCategory
}

type MaintenanceStats struct {
	StatusCounts           map[string]int64 `json:"status_counts"`
	CategoryCounts         map[string]int64 `json:"category_counts"`
	AvgResolutionTimeHours float64          `json:"avg_resolution_time_hours"`
}

type MaintenanceService struct {
	Base
	Requests stores.MaintenanceStore
	Tenants  stores.TenantStore
}

func NewMaintenanceService(base Base, requests stores.MaintenanceStore, tenants stores.TenantStore) *MaintenanceService {
	return &MaintenanceService{Base: base, Requests: requests, Tenants: tenants}
}

// Create opens a request for the calling tenant, who must have a room.
func (s *MaintenanceService) Create(ctx context.Context, p access.Principal, in MaintenanceInput) (*models.MaintenanceRequest, error) {
	if p.TenantID == nil {
		return nil, apperr.Forbidden("only tenants can create maintenance requests")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case !in.Category.Valid():
		return nil, apperr.Validation("category must be one of Plumbing, Electrical, Furniture, Other")
	case !in.Priority.Valid():
		return nil, apperr.Validation("priority must be one of Low, Medium, High, Critical")
	case in.Description == "":
		return nil, apperr.Validation("description is required")
	}

	tenant, err := s.Tenants.GetByID(ctx, *p.TenantID)
	if err != nil {
		return nil, storeErr(err, "tenant")
	}
	if tenant.RoomID == nil {
		return nil, apperr.Validation("tenant has no assigned room")
	}

	req := &models.MaintenanceRequest{
		TenantID:    tenant.ID,
		Category:    in.Category,
		Priority:    in.Priority,
		Description: in.Description,
		Status:      models.MaintenanceOpen,
		RequestDate: s.now().UTC(),
		ImagePath:   in.ImagePath,
	}
	if err := s.Requests.Create(ctx, req); err != nil {
		return nil, storeErr(err, "maintenance request")
	}

	s.emit(ctx, events.SubjectMaintenanceCreated, map[string]interface{}{
		"request_id": req.ID,
		"tenant_id":  req.TenantID,
		"room_id":    tenant.RoomID,
		"category":   req.Category,
		"priority":   req.Priority,
	})
	return req, nil
}

// Update lets an admin set any status at any time. Moving to Resolved or
// Closed stamps resolved_date with the update time.
func (s *MaintenanceService) Update(ctx context.Context, id uint, patch MaintenancePatch) (*models.MaintenanceRequest, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperr.Validation("unknown maintenance status %q", *patch.Status)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, apperr.Validation("unknown priority %q", *patch.Priority)
	}

	req, err := s.Requests.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "maintenance request")
	}

	if patch.Status != nil {
		req.Status = *patch.Status
		if req.Status.Done() {
			now := s.now().UTC()
			req.ResolvedDate = &now
		}
	}
	if patch.Priority != nil {
		req.Priority = *patch.Priority
	}
	if patch.ResolutionNotes != nil {
		req.ResolutionNotes = patch.ResolutionNotes
	}

	if err := s.Requests.Save(ctx, req); err != nil {
		return nil, storeErr(err, "maintenance request")
	}

	s.emit(ctx, events.SubjectMaintenanceUpdated, map[string]interface{}{
		"request_id": req.ID,
		"tenant_id":  req.TenantID,
		"status":     req.Status,
	})
	return req, nil
}

func (s *MaintenanceService) List(ctx context.Context, p access.Principal, f MaintenanceListFilter) ([]models.MaintenanceRequest, error) {
	switch {
	case f.Status != nil && !f.Status.Valid():
		return nil, apperr.Validation("unknown maintenance status %q", *f.Status)
	case f.Priority != nil && !f.Priority.Valid():
		return nil, apperr.Validation("unknown priority %q", *f.Priority)
	case f.Category != nil && !f.Category.Valid():
		return nil, apperr.Validation("unknown category %q", *f.Category)
	}

	filter := stores.MaintenanceFilter{
		Status:   f.Status,
		Priority: f.Priority,
		Category: f.Category,
		Offset:   f.Offset,
		Limit:    f.Limit,
	}
	if !p.IsAdmin() {
		if p.TenantID == nil {
			return []models.MaintenanceRequest{}, nil
		}
		filter.TenantID = p.TenantID
	}

	reqs, err := s.Requests.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "maintenance request")
	}
	return reqs, nil
}

func (s *MaintenanceService) Get(ctx context.Context, p access.Principal, id uint) (*models.MaintenanceRequest, error) {
	req, err := s.Requests.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "maintenance request")
	}
	if !p.CanSeeTenant(req.TenantID) {
		return nil, apperr.Forbidden("not allowed to view this maintenance request")
	}
	return req, nil
}

func (s *MaintenanceService) Stats(ctx context.Context) (*MaintenanceStats, error) {
	byStatus, err := s.Requests.CountBy(ctx, "status")
	if err != nil {
		return nil, storeErr(err, "maintenance request")
	}
	byCategory, err := s.Requests.CountBy(ctx, "category")
	if err != nil {
		return nil, storeErr(err, "maintenance request")
	}
	resolved, err := s.Requests.ListResolved(ctx)
	if err != nil {
		return nil, storeErr(err, "maintenance request")
	}

	var totalHours float64
	for _, r := range resolved {
		totalHours += r.ResolvedDate.Sub(r.RequestDate).Hours()
	}
	avg := 0.0
	if len(resolved) > 0 {
		avg = round2(totalHours / float64(len(resolved)))
	}

	return &MaintenanceStats{
		StatusCounts:           byStatus,
		CategoryCounts:         byCategory,
		AvgResolutionTimeHours: avg,
	}, nil
}
