package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/service"
	"github.com/noah-isme/escuela-portal-api/pkg/response"
)

// AttendanceHandler serves the teacher's daily attendance sheet.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Sheet godoc
// @Summary Daily attendance sheet
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param grade query string true "Grade"
// @Param section query string true "Section"
// @Param subjectId query string true "Subject ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/sheet [get]
func (h *AttendanceHandler) Sheet(c *gin.Context) {
	var q models.AttendanceSheetQuery
	if !bindQuery(c, &q, "invalid attendance query") {
		return
	}
	sheet, err := h.service.DailySheet(c.Request.Context(), sessionFromContext(c), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Save godoc
// @Summary Save daily attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SaveAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Router /attendance/sheet [put]
func (h *AttendanceHandler) Save(c *gin.Context) {
	var req models.SaveAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	report, err := h.service.SaveDailySheet(c.Request.Context(), sessionFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Batch(c, report, report.Expected, report.Failed)
}
