package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/service"
	"github.com/noah-isme/escuela-portal-api/pkg/response"
)

// ParentHandler serves the parent lookup used by enrollment.
type ParentHandler struct {
	service *service.ParentService
}

// NewParentHandler constructs a parent handler.
func NewParentHandler(svc *service.ParentService) *ParentHandler {
	return &ParentHandler{service: svc}
}

// Search godoc
// @Summary Search parents by name prefix
// @Description Inputs shorter than the configured minimum return an empty list.
// @Tags Parents
// @Produce json
// @Security BearerAuth
// @Param q query string true "Name prefix"
// @Success 200 {object} response.Envelope
// @Router /parents/search [get]
func (h *ParentHandler) Search(c *gin.Context) {
	parents, err := h.service.Search(c.Request.Context(), sessionFromContext(c), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if parents == nil {
		parents = []models.Parent{}
	}
	response.JSON(c, http.StatusOK, parents, nil)
}

// Create godoc
// @Summary Register parent
// @Tags Parents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateParentRequest true "Parent payload"
// @Success 201 {object} response.Envelope
// @Router /parents [post]
func (h *ParentHandler) Create(c *gin.Context) {
	var req models.CreateParentRequest
	if !bindJSON(c, &req, "invalid parent payload") {
		return
	}
	parent, err := h.service.Create(c.Request.Context(), sessionFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parent)
}
