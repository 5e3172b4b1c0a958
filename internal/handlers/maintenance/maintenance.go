package maintenance

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pg-manager/internal/apperr"
	"pg-manager/internal/handlers/respond"
	"pg-manager/internal/models"
	"pg-manager/internal/services"
)

type MaintenanceHandler struct {
	Requests *services.MaintenanceService
}

func NewMaintenanceHandler(requests *services.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{Requests: requests}
}

func (h *MaintenanceHandler) List(c *gin.Context) {
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
	f, err := parseFilter(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	f.Page = page

	requests, err := h.Requests.List(c.Request.Context(), p, f)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func parseFilter(c *gin.Context) (services.MaintenanceListFilter, error) {
	var f services.MaintenanceListFilter

	if raw := c.Query("status"); raw != "" {
		v := models.MaintenanceStatus(raw)
		if !v.Valid() {
			return f, apperr.Validation("unknown status %q", raw)
		}
		f.Status = &v
	}
	if raw := c.Query("priority"); raw != "" {
		v := models.MaintenancePriority(raw)
		if !v.Valid() {
			return f, apperr.Validation("unknown priority %q", raw)
		}
		f.Priority = &v
	}
	if raw := c.Query("category"); raw != "" {
		v := models.MaintenanceCategory(raw)
		if !v.Valid() {
			return f, apperr.Validation("unknown category %q", raw)
		}
		f.Category = &v
	}
	return f, nil
}

func (h *MaintenanceHandler) Create(c *gin.Context) {
	p, err := respond.Caller(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	var in services.MaintenanceInput
	if err := respond.BindJSON(c, &in); err != nil {
		respond.Error(c, err)
		return
	}
	req, err := h.Requests.Create(c.Request.Context(), p, in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *MaintenanceHandler) Get(c *gin.Context) {
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
	req, err := h.Requests.Get(c.Request.Context(), p, id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *MaintenanceHandler) Update(c *gin.Context) {
	id, err := respond.ParseID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	var patch services.MaintenancePatch
	if err := respond.BindJSON(c, &patch); err != nil {
		respond.Error(c, err)
		return
	}
	req, err := h.Requests.Update(c.Request.Context(), id, patch)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *MaintenanceHandler) Stats(c *gin.Context) {
	stats, err := h.Requests.Stats(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
