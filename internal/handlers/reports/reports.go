package reports

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pg-manager/internal/apperr"
	"pg-manager/internal/handlers/respond"
	"pg-manager/internal/models"
	"pg-manager/internal/services"
)

type ReportHandler struct {
	Reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{Reports: reports}
}

// Revenue serves GET /reports/revenue; start_date and end_date are optional
// YYYY-MM-DD bounds on payment_date.
func (h *ReportHandler) Revenue(c *gin.Context) {
	start, err := dateQuery(c, "start_date")
	if err != nil {
		respond.Error(c, err)
		return
	}
	end, err := dateQuery(c, "end_date")
	if err != nil {
		respond.Error(c, err)
		return
	}
	report, err := h.Reports.Revenue(c.Request.Context(), start, end)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) Occupancy(c *gin.Context) {
	report, err := h.Reports.Occupancy(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) Tenant(c *gin.Context) {
	id, err := respond.ParseID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	report, err := h.Reports.Tenant(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func dateQuery(c *gin.Context, name string) (*models.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be YYYY-MM-DD", name)
	}
	return &d, nil
}
