package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/service"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
	"github.com/noah-isme/escuela-portal-api/pkg/response"
)

// CourseHandler exposes the course consistency engine.
type CourseHandler struct {
	service *service.CourseService
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(svc *service.CourseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

func courseFilter(c *gin.Context) (models.CourseFilter, error) {
	filter := models.CourseFilter{
		Grade:     strings.TrimSpace(c.Query("grade")),
		SubjectID: c.Query("subjectId"),
		TeacherID: c.Query("teacherId"),
	}
	if raw := c.Query("section"); raw != "" {
		section, ok := models.ParseSection(raw)
		if !ok {
			return filter, appErrors.Clone(appErrors.ErrValidation, "section must be one of A, B, C")
		}
		filter.Section = section
	}
	return filter, nil
}

// List godoc
// @Summary List course records
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param grade query string false "Grade"
// @Param section query string false "Section"
// @Param subjectId query string false "Subject ID"
// @Param teacherId query string false "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter, err := courseFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	courses, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Grouped godoc
// @Summary List logical courses grouped by grade, subject and teacher
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param grade query string false "Grade"
// @Param subjectId query string false "Subject ID"
// @Param teacherId query string false "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /courses/grouped [get]
func (h *CourseHandler) Grouped(c *gin.Context) {
	filter, err := courseFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	groups, err := h.service.Grouped(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Get godoc
// @Summary Get course record
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create one course record per section
// @Description Sections that already exist are reported, not duplicated. Partial failures answer 207.
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req models.CreateCourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	result, err := h.service.Create(c.Request.Context(), sessionFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Created > 0 && result.Failed == 0 {
		response.Created(c, result)
		return
	}
	response.Batch(c, result, len(result.Sections), result.Failed)
}

// Update godoc
// @Summary Edit a course and reconcile its sibling sections
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param payload body models.EditCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req models.EditCourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	result, err := h.service.Edit(c.Request.Context(), sessionFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Batch(c, result, len(result.Sections), result.Failed)
}

// Delete godoc
// @Summary Delete a course record
// @Tags Courses
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), sessionFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TeacherCourses godoc
// @Summary Courses taught by the signed-in teacher
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param teacherId query string false "Teacher ID (administrators only)"
// @Success 200 {object} response.Envelope
// @Router /teacher/courses [get]
func (h *CourseHandler) TeacherCourses(c *gin.Context) {
	courses, err := h.service.TeacherCourses(c.Request.Context(), sessionFromContext(c), c.Query("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// SubjectsForGrade godoc
// @Summary Subjects offered to a grade
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param grade path string true "Grade"
// @Success 200 {object} response.Envelope
// @Router /grades/{grade}/subjects [get]
func (h *CourseHandler) SubjectsForGrade(c *gin.Context) {
	subjects, err := h.service.SubjectsForGrade(c.Request.Context(), c.Param("grade"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}
