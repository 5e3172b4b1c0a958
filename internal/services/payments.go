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
)

type PaymentInput struct {
	Amount         float64      `json:"amount"`
	PaymentDate    *models.Date `json:"payment_date"`
	PaymentMethod  string       `json:"payment_method"`
	TransactionID  string       `json:"transaction_id"`
	PaymentMonth   *models.Date `json:"payment_month"`
	ProofImagePath *string      `json:"proof_image_path"`
}

type PaymentReview struct {
	Status  models.PaymentStatus `json:"status"`
	Remarks *string              `json:"remarks"`
}

type PaymentListFilter struct {
	Page
	TenantID *uint
	Status   *models.PaymentStatus
}

type PaymentService struct {
	Base
	Payments stores.PaymentStore
}

func NewPaymentService(base Base, payments stores.PaymentStore) *PaymentService {
	return &PaymentService{Base: base, Payments: payments}
}

// Submit records a tenant's own rent payment as Pending. The month is
// normalized to its first day; a second payment for it is a conflict.
func (s *PaymentService) Submit(ctx context.Context, p access.Principal, in PaymentInput) (*models.RentPayment, error) {
	if p.TenantID == nil {
		return nil, apperr.Forbidden("only tenants can submit payments")
	}

	in.TransactionID = strings.TrimSpace(in.TransactionID)
	switch {
	case in.Amount <= 0:
		return nil, apperr.Validation("amount must be greater than zero")
	case in.TransactionID == "":
		return nil, apperr.Validation("transaction_id is required")
	case in.PaymentDate == nil || in.PaymentDate.IsZero():
		return nil, apperr.Validation("payment_date is required")
	case in.PaymentMonth == nil || in.PaymentMonth.IsZero():
		return nil, apperr.Validation("payment_month is required")
	}

	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = models.DefaultPaymentMethod
	}

	payment := &models.RentPayment{
		TenantID:       *p.TenantID,
		Amount:         in.Amount,
		PaymentDate:    *in.PaymentDate,
		PaymentMethod:  method,
		TransactionID:  in.TransactionID,
		PaymentMonth:   in.PaymentMonth.Month(),
		Status:         models.PaymentPending,
		ProofImagePath: in.ProofImagePath,
	}
	if err := s.Payments.Create(ctx, payment); err != nil {
		if errors.Is(err, stores.ErrDuplicate) {
			return nil, apperr.Conflict("payment for %s already exists", payment.PaymentMonth.MonthKey())
		}
		return nil, storeErr(err, "payment")
	}

	s.emit(ctx, events.SubjectPaymentSubmitted, map[string]interface{}{
		"payment_id":    payment.ID,
		"tenant_id":     payment.TenantID,
		"amount":        payment.Amount,
		"payment_month": payment.PaymentMonth,
	})
	return payment, nil
}

// Verify moves a Pending payment to Verified or Rejected. Only one review
// of a payment can ever succeed.
func (s *PaymentService) Verify(ctx context.Context, id uint, review PaymentReview) (*models.RentPayment, error) {
	if review.Status != models.PaymentVerified && review.Status != models.PaymentRejected {
		return nil, apperr.Validation("status must be Verified or Rejected")
	}

	payment, err := s.Payments.Review(ctx, id, review.Status, review.Remarks)
	if err != nil {
		return nil, storeErr(err, "payment")
	}

	s.emit(ctx, events.SubjectPaymentReviewed, map[string]interface{}{
		"payment_id": payment.ID,
		"tenant_id":  payment.TenantID,
		"status":     payment.Status,
	})
	return payment, nil
}

// List scopes tenants to their own payments; admins may filter freely.
func (s *PaymentService) List(ctx context.Context, p access.Principal, f PaymentListFilter) ([]models.RentPayment, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, apperr.Validation("unknown payment status %q", *f.Status)
	}

	filter := stores.PaymentFilter{
		TenantID: f.TenantID,
		Status:   f.Status,
		Offset:   f.Offset,
		Limit:    f.Limit,
	}
	if !p.IsAdmin() {
		if p.TenantID == nil {
			return []models.RentPayment{}, nil
		}
		filter.TenantID = p.TenantID
	}

	payments, err := s.Payments.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "payment")
	}
	return payments, nil
}

func (s *PaymentService) Get(ctx context.Context, p access.Principal, id uint) (*models.RentPayment, error) {
	payment, err := s.Payments.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "payment")
	}
	if !p.CanSeeTenant(payment.TenantID) {
		return nil, apperr.Forbidden("not allowed to view this payment")
	}
	return payment, nil
}
