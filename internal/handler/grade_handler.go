package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/service"
	"github.com/noah-isme/escuela-portal-api/pkg/export"
	"github.com/noah-isme/escuela-portal-api/pkg/response"
)

// GradeHandler serves trimester grade sheets and reports.
type GradeHandler struct {
	service *service.GradeService
}

// NewGradeHandler constructs a grade handler.
func NewGradeHandler(svc *service.GradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// Sheet godoc
// @Summary Trimester grade sheet
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param grade query string true "Grade"
// @Param section query string true "Section"
// @Param subjectName query string true "Subject name"
// @Param trimester query string true "trimestre1, trimestre2 or trimestre3"
// @Success 200 {object} response.Envelope
// @Router /grade-sheets [get]
func (h *GradeHandler) Sheet(c *gin.Context) {
	var q models.GradeSheetQuery
	if !bindQuery(c, &q, "invalid grade sheet query") {
		return
	}
	sheet, err := h.service.GradeSheet(c.Request.Context(), sessionFromContext(c), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Save godoc
// @Summary Save trimester grades
// @Description The whole sheet is rejected when any score is invalid.
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SaveGradeSheetRequest true "Scores by student id"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grade-sheets [put]
func (h *GradeHandler) Save(c *gin.Context) {
	var req models.SaveGradeSheetRequest
	if !bindJSON(c, &req, "invalid grade sheet payload") {
		return
	}
	report, err := h.service.SaveGradeSheet(c.Request.Context(), sessionFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Batch(c, report, report.Expected, report.Failed)
}

// Export godoc
// @Summary Download a grade report
// @Tags Grades
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param grade query string true "Grade"
// @Param section query string true "Section"
// @Param subjectName query string true "Subject name"
// @Param trimester query string true "trimestre1, trimestre2 or trimestre3"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /grade-sheets/export [get]
func (h *GradeHandler) Export(c *gin.Context) {
	var q models.GradeSheetQuery
	if !bindQuery(c, &q, "invalid grade report query") {
		return
	}
	report, err := h.service.ExportGradeReport(c.Request.Context(), sessionFromContext(c), q, export.Format(c.DefaultQuery("format", string(export.FormatCSV))))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, report.ContentType, report.Filename, report.Body)
}
