package services

import (
	"context"
	"sort"

	"pg-manager/internal/apperr"
	"pg-manager/internal/models"
	"pg-manager/internal/stores"
)

type ReportPeriod struct {
	Start *models.Date `json:"start"`
	End   *models.Date `json:"end"`
}

type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

type RevenueReport struct {
	TotalRevenue     float64          `json:"total_revenue"`
	PendingRevenue   float64          `json:"pending_revenue"`
	MonthlyBreakdown []MonthlyRevenue `json:"monthly_breakdown"`
	Period           ReportPeriod     `json:"period"`
}

type RoomOccupancy struct {
	ID         uint            `json:"id"`
	RoomNumber string          `json:"room_number"`
	Type       models.RoomType `json:"type"`
	Capacity   int             `json:"capacity"`
	Occupancy  int             `json:"occupancy"`
}

type OccupancyReport struct {
	OccupancyRate      float64         `json:"occupancy_rate"`
	TotalCapacity      int             `json:"total_capacity"`
	TotalOccupiedBeds  int             `json:"total_occupied_beds"`
	TotalRooms         int             `json:"total_rooms"`
	VacantRoomsCount   int             `json:"vacant_rooms_count"`
	OccupiedRoomsCount int             `json:"occupied_rooms_count"`
	VacantRooms        []RoomOccupancy `json:"vacant_rooms"`
	OccupiedRooms      []RoomOccupancy `json:"occupied_rooms"`
}

type TenantDetails struct {
	FullName string      `json:"full_name"`
	Email    string      `json:"email,omitempty"`
	Phone    string      `json:"phone"`
	Room     string      `json:"room"`
	CheckIn  models.Date `json:"check_in"`
	Status   string      `json:"status"`
}

type TenantFinancials struct {
	TotalRentPaid       float64 `json:"total_rent_paid"`
	PendingDues         float64 `json:"pending_dues"`
	PaymentHistoryCount int     `json:"payment_history_count"`
}

type TenantMaintenanceSummary struct {
	TotalRequests int `json:"total_requests"`
	Open          int `json:"open"`
	Resolved      int `json:"resolved"`
}

type TenantHistory struct {
	Payments    []models.RentPayment        `json:"payments"`
	Maintenance []models.MaintenanceRequest `json:"maintenance"`
}

type TenantReport struct {
	TenantDetails TenantDetails            `json:"tenant_details"`
	Financials    TenantFinancials         `json:"financials"`
	Maintenance   TenantMaintenanceSummary `json:"maintenance"`
	History       TenantHistory            `json:"history"`
}

type ReportService struct {
	Base
	Rooms    stores.RoomStore
	Tenants  stores.TenantStore
	Payments stores.PaymentStore
	Requests stores.MaintenanceStore
}

func NewReportService(
	base Base,
	rooms stores.RoomStore,
	tenants stores.TenantStore,
	payments stores.PaymentStore,
	requests stores.MaintenanceStore,
) *ReportService {
	return &ReportService{Base: base, Rooms: rooms, Tenants: tenants, Payments: payments, Requests: requests}
}

// Revenue sums payments whose payment_date falls in [start, end]. Only
// Verified payments count as revenue and appear in the monthly breakdown.
func (s *ReportService) Revenue(ctx context.Context, start, end *models.Date) (*RevenueReport, error) {
	if start != nil && end != nil && end.Time().Before(start.Time()) {
		return nil, apperr.Validation("end_date is before start_date")
	}

	payments, err := s.Payments.List(ctx, stores.PaymentFilter{From: start, To: end})
	if err != nil {
		return nil, storeErr(err, "payment")
	}

	report := &RevenueReport{
		MonthlyBreakdown: []MonthlyRevenue{},
		Period:           ReportPeriod{Start: start, End: end},
	}
	byMonth := map[string]float64{}
	for _, p := range payments {
		switch p.Status {
		case models.PaymentVerified:
			report.TotalRevenue += p.Amount
			byMonth[p.PaymentMonth.MonthKey()] += p.Amount
		case models.PaymentPending:
			report.PendingRevenue += p.Amount
		}
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		report.MonthlyBreakdown = append(report.MonthlyBreakdown, MonthlyRevenue{Month: m, Revenue: byMonth[m]})
	}
	return report, nil
}

// Occupancy reports bed usage over active rooms. The result is cached until
// a room or tenant assignment changes.
func (s *ReportService) Occupancy(ctx context.Context) (*OccupancyReport, error) {
	var gen int64
	cacheable := false
	if s.Cache != nil {
		var cached OccupancyReport
		hit, err := s.Cache.Get(ctx, OccupancyCacheKey, &cached)
		if err != nil {
			s.log().WithError(err).Warn("Occupancy cache read failed")
		} else if hit {
			return &cached, nil
		}
		// The generation is read before the store so a concurrent
		// invalidation makes the write below a no-op.
		if gen, err = s.Cache.Generation(ctx, OccupancyCacheKey); err != nil {
			s.log().WithError(err).Warn("Occupancy cache generation read failed")
		} else {
			cacheable = true
		}
	}

	rooms, err := s.Rooms.ListActive(ctx)
	if err != nil {
		return nil, storeErr(err, "room")
	}
	occ, err := s.Rooms.Occupancy(ctx)
	if err != nil {
		return nil, storeErr(err, "room")
	}

	report := &OccupancyReport{
		TotalRooms:    len(rooms),
		VacantRooms:   []RoomOccupancy{},
		OccupiedRooms: []RoomOccupancy{},
	}
	for _, r := range rooms {
		n := occ[r.ID]
		report.TotalCapacity += r.Capacity
		report.TotalOccupiedBeds += n

		row := RoomOccupancy{ID: r.ID, RoomNumber: r.RoomNumber, Type: r.RoomType, Capacity: r.Capacity, Occupancy: n}
		if n > 0 {
			report.OccupiedRooms = append(report.OccupiedRooms, row)
		}
		if n < r.Capacity {
			report.VacantRooms = append(report.VacantRooms, row)
		}
	}
	report.VacantRoomsCount = len(report.VacantRooms)
	report.OccupiedRoomsCount = len(report.OccupiedRooms)
	if report.TotalCapacity > 0 {
		report.OccupancyRate = round2(float64(report.TotalOccupiedBeds) / float64(report.TotalCapacity) * 100)
	}

	if cacheable {
		stored, err := s.Cache.SetAt(ctx, OccupancyCacheKey, gen, report)
		if err != nil {
			s.log().WithError(err).Warn("Occupancy cache write failed")
		} else if !stored {
			s.log().Debug("Occupancy snapshot invalidated while computing, not cached")
		}
	}
	return report, nil
}

func (s *ReportService) Tenant(ctx context.Context, id uint) (*TenantReport, error) {
	tenant, err := s.Tenants.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "tenant")
	}
	payments, err := s.Payments.List(ctx, stores.PaymentFilter{TenantID: &id})
	if err != nil {
		return nil, storeErr(err, "payment")
	}
	requests, err := s.Requests.List(ctx, stores.MaintenanceFilter{TenantID: &id})
	if err != nil {
		return nil, storeErr(err, "maintenance request")
	}

	report := &TenantReport{
		TenantDetails: TenantDetails{
			FullName: tenant.FullName,
			Phone:    tenant.Phone,
			Room:     "Unassigned",
			CheckIn:  tenant.CheckInDate,
			Status:   "Inactive",
		},
		History: TenantHistory{Payments: payments, Maintenance: requests},
	}
	if tenant.User != nil {
		report.TenantDetails.Email = tenant.User.Email
	}
	if tenant.Room != nil {
		report.TenantDetails.Room = tenant.Room.RoomNumber
	}
	if tenant.IsActive {
		report.TenantDetails.Status = "Active"
	}

	for _, p := range payments {
		switch p.Status {
		case models.PaymentVerified:
			report.Financials.TotalRentPaid += p.Amount
		case models.PaymentPending:
			report.Financials.PendingDues += p.Amount
		}
	}
	report.Financials.PaymentHistoryCount = len(payments)

	report.Maintenance.TotalRequests = len(requests)
	for _, r := range requests {
		if r.Status.Done() {
			report.Maintenance.Resolved++
		} else {
			report.Maintenance.Open++
		}
	}
	return report, nil
}
