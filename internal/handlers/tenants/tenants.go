package tenants

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pg-manager/internal/handlers/respond"
	"pg-manager/internal/services"
)

type TenantHandler struct {
	Tenants *services.TenantService
	Digests *services.NotificationService
}

func NewTenantHandler(tenants *services.TenantService, notifications *services.NotificationService) *TenantHandler {
	return &TenantHandler{Tenants: tenants, Digests: notifications}
}

// List serves GET /tenants. active_only defaults to true.
func (h *TenantHandler) List(c *gin.Context) {
	page, err := respond.ParsePage(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	activeOnly, err := respond.ParseBool(c, "active_only")
	if err != nil {
		respond.Error(c, err)
		return
	}

	f := services.TenantListFilter{Page: page, ActiveOnly: true}
	if activeOnly != nil {
		f.ActiveOnly = *activeOnly
	}

	tenants, err := h.Tenants.List(c.Request.Context(), f)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, tenants)
}

func (h *TenantHandler) Create(c *gin.Context) {
	var in services.TenantInput
	if err := respond.BindJSON(c, &in); err != nil {
		respond.Error(c, err)
		return
	}
	reg, err := h.Tenants.Register(c.Request.Context(), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Logger(c).WithField("tenant_id", reg.ID).Info("Tenant registered")
	c.JSON(http.StatusCreated, reg)
}

func (h *TenantHandler) Get(c *gin.Context) {
	id, err := respond.ParseID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	p, err := respond.Caller(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	tenant, err := h.Tenants.Get(c.Request.Context(), p, id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandler) Update(c *gin.Context) {
	id, err := respond.ParseID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	var patch services.TenantPatch
	if err := respond.BindJSON(c, &patch); err != nil {
		respond.Error(c, err)
		return
	}
	tenant, err := h.Tenants.Update(c.Request.Context(), id, patch)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandler) Checkout(c *gin.Context) {
	id, err := respond.ParseID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	tenant, err := h.Tenants.Checkout(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Logger(c).WithField("tenant_id", tenant.ID).Info("Tenant checked out")
	c.JSON(http.StatusOK, tenant)
}

// Notifications serves the calling tenant's digest.
func (h *TenantHandler) Notifications(c *gin.Context) {
	p, err := respond.Caller(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	digest, err := h.Digests.Digest(c.Request.Context(), p)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, digest)
}
