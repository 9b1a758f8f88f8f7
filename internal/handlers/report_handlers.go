package handlers

import (
	"net/http"

	"clinic_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GetDayReport returns the totals for one calendar day given as YYYY-MM-DD.
func (h *ReportHandler) GetDayReport(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetDayReport(c.Request.Context(), identity, c.Param("date"))
	if err != nil {
		respondServiceError(c, err, "GetDayReport: Error from reportService.GetDayReport for "+c.Param("date"), "Failed to build day report.")
		return
	}
	c.JSON(http.StatusOK, report)
}
