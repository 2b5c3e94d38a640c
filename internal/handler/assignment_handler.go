package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/service"
	"github.com/noah-isme/escuela-portal-api/pkg/response"
)

// AssignmentHandler exposes course assignments and their per-student statuses.
type AssignmentHandler struct {
	service *service.AssignmentService
	now     func() time.Time
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc, now: time.Now}
}

// writeOutcome answers 201/200 when every status write landed and 207 otherwise; the
// assignment itself exists either way.
func writeOutcome(c *gin.Context, success int, data interface{}, report models.WriteReport) {
	if report.Failed > 0 {
		response.JSON(c, http.StatusMultiStatus, data, nil)
		return
	}
	response.JSON(c, success, data, nil)
}

// List godoc
// @Summary List course assignments with due date classification
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	assignments, err := h.service.List(c.Request.Context(), sessionFromContext(c), c.Param("id"), h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Get godoc
// @Summary Get assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param taskId path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/assignments/{taskId} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	assignment, err := h.service.Get(c.Request.Context(), sessionFromContext(c), c.Param("id"), c.Param("taskId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Create godoc
// @Summary Create assignment and a status per enrolled student
// @Description Status writes are independent; failures are listed in the report and answer 207.
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param payload body models.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Router /courses/{id}/assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req models.CreateAssignmentRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	result, err := h.service.Create(c.Request.Context(), sessionFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeOutcome(c, http.StatusCreated, result, result.Statuses)
}

// Update godoc
// @Summary Edit assignment fields and backfill missing statuses
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param taskId path string true "Assignment ID"
// @Param payload body models.UpdateAssignmentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Router /courses/{id}/assignments/{taskId} [put]
func (h *AssignmentHandler) Update(c *gin.Context) {
	var req models.UpdateAssignmentRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	result, err := h.service.Update(c.Request.Context(), sessionFromContext(c), c.Param("id"), c.Param("taskId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeOutcome(c, http.StatusOK, result, result.Statuses)
}

// Statuses godoc
// @Summary Grading roster of an assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param taskId path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/assignments/{taskId}/statuses [get]
func (h *AssignmentHandler) Statuses(c *gin.Context) {
	rows, err := h.service.StatusBoard(c.Request.Context(), sessionFromContext(c), c.Param("id"), c.Param("taskId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Grade godoc
// @Summary Save fulfilment and notes for the roster
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param taskId path string true "Assignment ID"
// @Param payload body models.GradeAssignmentRequest true "Roster entries"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /courses/{id}/assignments/{taskId}/statuses [put]
func (h *AssignmentHandler) Grade(c *gin.Context) {
	var req models.GradeAssignmentRequest
	if !bindJSON(c, &req, "invalid grading payload") {
		return
	}
	report, err := h.service.Grade(c.Request.Context(), sessionFromContext(c), c.Param("id"), c.Param("taskId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Batch(c, report, report.Expected, report.Failed)
}
