package payments

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pg-manager/internal/apperr"
	"pg-manager/internal/handlers/respond"
	"pg-manager/internal/models"
	"pg-manager/internal/services"
)

type PaymentHandler struct {
	Payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Payments: payments}
}

// List serves GET /payments. Tenants always get their own rows regardless
// of tenant_id.
func (h *PaymentHandler) List(c *gin.Context) {
	p, err := respond.Caller(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	page, err := respond.ParsePage(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	tenantID, err := respond.ParseUintQuery(c, "tenant_id")
	if err != nil {
		respond.Error(c, err)
		return
	}

	f := services.PaymentListFilter{Page: page, TenantID: tenantID}
	if raw := c.Query("status"); raw != "" {
		status := models.PaymentStatus(raw)
		if !status.Valid() {
			respond.Error(c, apperr.Validation("unknown payment status %q", raw))
			return
		}
		f.Status = &status
	}

	payments, err := h.Payments.List(c.Request.Context(), p, f)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) Create(c *gin.Context) {
	p, err := respond.Caller(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	var in services.PaymentInput
	if err := respond.BindJSON(c, &in); err != nil {
		respond.Error(c, err)
		return
	}
	payment, err := h.Payments.Submit(c.Request.Context(), p, in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	p, err := respond.Caller(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	id, err := respond.ParseID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	payment, err := h.Payments.Get(c.Request.Context(), p, id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// Verify serves PUT /payments/:id/verify.
func (h *PaymentHandler) Verify(c *gin.Context) {
	id, err := respond.ParseID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	var review services.PaymentReview
	if err := respond.BindJSON(c, &review); err != nil {
		respond.Error(c, err)
		return
	}
	payment, err := h.Payments.Verify(c.Request.Context(), id, review)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Logger(c).WithFields(map[string]interface{}{
		"payment_id": payment.ID,
		"status":     payment.Status,
	}).Info("Payment reviewed")
	c.JSON(http.StatusOK, payment)
}
