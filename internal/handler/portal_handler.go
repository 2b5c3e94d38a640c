package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/service"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
	"github.com/noah-isme/escuela-portal-api/pkg/response"
)

// PortalHandler serves the parent portal, which signs in with the student's account.
type PortalHandler struct {
	assignments *service.AssignmentService
	attendance  *service.AttendanceService
	grades      *service.GradeService
	now         func() time.Time
}

// NewPortalHandler constructs the parent portal handler.
func NewPortalHandler(assignments *service.AssignmentService, attendance *service.AttendanceService, grades *service.GradeService) *PortalHandler {
	return &PortalHandler{assignments: assignments, attendance: attendance, grades: grades, now: time.Now}
}

// Assignments godoc
// @Summary Assignments of the signed-in student for one subject
// @Tags Portal
// @Produce json
// @Security BearerAuth
// @Param subject query string true "Subject name"
// @Param filter query string false "all, fulfilled, unfulfilled or pending"
// @Success 200 {object} response.Envelope
// @Router /me/assignments [get]
func (h *PortalHandler) Assignments(c *gin.Context) {
	rows, err := h.assignments.StudentAssignments(c.Request.Context(), sessionFromContext(c), c.Query("subject"), c.DefaultQuery("filter", models.StudentFilterAll))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Attendance godoc
// @Summary Monthly attendance of the signed-in student
// @Tags Portal
// @Produce json
// @Security BearerAuth
// @Param year query int false "Year, defaults to the current one"
// @Param month query int false "Month 1-12, defaults to the current one"
// @Param subject query string false "Subject name"
// @Success 200 {object} response.Envelope
// @Router /me/attendance [get]
func (h *PortalHandler) Attendance(c *gin.Context) {
	now := h.now()
	year, err := intQuery(c, "year", now.Year())
	if err != nil {
		response.Error(c, err)
		return
	}
	month, err := intQuery(c, "month", int(now.Month()))
	if err != nil {
		response.Error(c, err)
		return
	}

	session := sessionFromContext(c)
	summary, err := h.attendance.StudentAttendance(c.Request.Context(), session, session.AccountID, year, month, c.Query("subject"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Grades godoc
// @Summary Trimester grade of the signed-in student
// @Tags Portal
// @Produce json
// @Security BearerAuth
// @Param subject query string true "Subject name"
// @Param trimester query string true "trimestre1, trimestre2 or trimestre3"
// @Success 200 {object} response.Envelope
// @Router /me/grades [get]
func (h *PortalHandler) Grades(c *gin.Context) {
	session := sessionFromContext(c)
	view, err := h.grades.StudentGrade(c.Request.Context(), session, session.AccountID, c.Query("subject"), c.Query("trimester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Validation(err, key+" must be a number")
	}
	return value, nil
}
