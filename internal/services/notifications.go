package services

import (
	"context"

	"pg-manager/internal/access"
	"pg-manager/internal/apperr"
	"pg-manager/internal/events"
	"pg-manager/internal/models"
	"pg-manager/internal/stores"
)

const RentUnpaid = "Unpaid"

type RentStatus struct {
	Month  models.Date `json:"month"`
	Status string      `json:"status"`
	// Paid is true once a payment is Pending or Verified.
	Paid bool `json:"paid"`
}

type MaintenanceUpdate struct {
	ID       uint                       `json:"id"`
	Category models.MaintenanceCategory `json:"category"`
	Status   models.MaintenanceStatus   `json:"status"`
}

type Notifications struct {
	Rent               RentStatus          `json:"rent"`
	MaintenanceUpdates []MaintenanceUpdate `json:"maintenance_updates"`
}

type NotificationService struct {
	Base
	Tenants  stores.TenantStore
	Payments stores.PaymentStore
	Requests stores.MaintenanceStore
}

func NewNotificationService(
	base Base,
	tenants stores.TenantStore,
	payments stores.PaymentStore,
	requests stores.MaintenanceStore,
) *NotificationService {
	return &NotificationService{Base: base, Tenants: tenants, Payments: payments, Requests: requests}
}

// Digest summarizes the current month's rent and the tenant's maintenance
// requests that have moved past Open.
func (s *NotificationService) Digest(ctx context.Context, p access.Principal) (*Notifications, error) {
	if p.TenantID == nil {
		return nil, apperr.Forbidden("notifications are only available to tenants")
	}

	month := models.MonthOf(s.now())
	payments, err := s.Payments.List(ctx, stores.PaymentFilter{TenantID: p.TenantID, Month: &month})
	if err != nil {
		return nil, storeErr(err, "payment")
	}

	out := &Notifications{
		Rent:               RentStatus{Month: month, Status: RentUnpaid},
		MaintenanceUpdates: []MaintenanceUpdate{},
	}
	if len(payments) > 0 {
		out.Rent.Status = string(payments[0].Status)
		out.Rent.Paid = payments[0].Status == models.PaymentPending || payments[0].Status == models.PaymentVerified
	}

	requests, err := s.Requests.List(ctx, stores.MaintenanceFilter{TenantID: p.TenantID})
	if err != nil {
		return nil, storeErr(err, "maintenance request")
	}
	for _, r := range requests {
		if r.Status == models.MaintenanceOpen {
			continue
		}
		out.MaintenanceUpdates = append(out.MaintenanceUpdates, MaintenanceUpdate{
			ID: r.ID, Category: r.Category, Status: r.Status,
		})
	}
	return out, nil
}

// RentDue lists active, room-assigned tenants with no Pending or Verified
// payment for month.
func (s *NotificationService) RentDue(ctx context.Context, month models.Date) ([]models.Tenant, error) {
	tenants, err := s.Tenants.List(ctx, stores.TenantFilter{ActiveOnly: true})
	if err != nil {
		return nil, storeErr(err, "tenant")
	}
	payments, err := s.Payments.List(ctx, stores.PaymentFilter{Month: &month})
	if err != nil {
		return nil, storeErr(err, "payment")
	}

	covered := make(map[uint]bool, len(payments))
	for _, p := range payments {
		if p.Status == models.PaymentPending || p.Status == models.PaymentVerified {
			covered[p.TenantID] = true
		}
	}

	var due []models.Tenant
	for _, t := range tenants {
		if t.RoomID != nil && !covered[t.ID] {
			due = append(due, t)
		}
	}
	return due, nil
}

// RemindRentDue publishes a rent-due event for every tenant RentDue returns
// for the current month, and reports how many were sent.
func (s *NotificationService) RemindRentDue(ctx context.Context) (int, error) {
	month := models.MonthOf(s.now())
	due, err := s.RentDue(ctx, month)
	if err != nil {
		return 0, err
	}
	for _, t := range due {
		data := map[string]interface{}{
			"tenant_id": t.ID,
			"room_id":   t.RoomID,
			"month":     month,
		}
		if t.Room != nil {
			data["amount"] = t.Room.MonthlyRent
		}
		s.emit(ctx, events.SubjectRentDue, data)
	}
	return len(due), nil
}
