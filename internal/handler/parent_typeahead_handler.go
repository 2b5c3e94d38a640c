package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/service"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
	"github.com/noah-isme/escuela-portal-api/pkg/response"
)

// Typeahead actions.
const (
	typeaheadType     = "type"
	typeaheadSelect   = "select"
	typeaheadResolve  = "resolve"
	typeaheadResults  = "results"
	typeaheadSelected = "selected"
	typeaheadResolved = "resolved"
	typeaheadError    = "error"
)

type typeaheadRequest struct {
	Action     string `json:"action"`
	Text       string `json:"text,omitempty"`
	ParentID   string `json:"parentId,omitempty"`
	NationalID string `json:"nationalId,omitempty"`
}

type typeaheadReply struct {
	Action  string           `json:"action"`
	Parents []models.Parent  `json:"parents,omitempty"`
	Parent  *models.Parent   `json:"parent,omitempty"`
	Error   *appErrors.Error `json:"error,omitempty"`
}

// ParentTypeaheadHandler drives a ParentPicker over a websocket.
type ParentTypeaheadHandler struct {
	parents  *service.ParentService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewParentTypeaheadHandler constructs the typeahead endpoint.
func NewParentTypeaheadHandler(parents *service.ParentService, allowedOrigins []string, logger *zap.Logger) *ParentTypeaheadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParentTypeaheadHandler{parents: parents, upgrader: newUpgrader(allowedOrigins), logger: logger}
}

// Stream godoc
// @Summary Parent typeahead
// @Description Websocket. Send {"action":"type","text":...}, {"action":"select","parentId":...} or
// @Description {"action":"resolve","nationalId":...}. Results arrive after the debounce window.
// @Tags Parents
// @Security BearerAuth
// @Param access_token query string false "Access token for browser clients"
// @Success 101
// @Router /parents/typeahead [get]
func (h *ParentTypeaheadHandler) Stream(c *gin.Context) {
	session := sessionFromContext(c)
	if session.Role != models.RoleAdmin {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("typeahead upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()
	conn := &wsConn{ws: ws}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	picker := h.parents.NewPicker(ctx, session, func(parents []models.Parent, err error) {
		if err != nil {
			_ = conn.send(typeaheadReply{Action: typeaheadError, Error: appErrors.FromError(err)})
			return
		}
		if parents == nil {
			parents = []models.Parent{}
		}
		_ = conn.send(typeaheadReply{Action: typeaheadResults, Parents: parents})
	})
	defer picker.Close()

	for {
		var req typeaheadRequest
		if err := ws.ReadJSON(&req); err != nil {
			return
		}
		reply := h.handle(ctx, picker, req)
		if reply == nil {
			continue
		}
		if err := conn.send(reply); err != nil {
			return
		}
	}
}

func (h *ParentTypeaheadHandler) handle(ctx context.Context, picker *service.ParentPicker, req typeaheadRequest) *typeaheadReply {
	switch req.Action {
	case typeaheadType:
		picker.Type(req.Text)
		return nil
	case typeaheadSelect:
		parent := findParent(picker.Results(), req.ParentID)
		if parent == nil {
			found, err := h.parents.Get(ctx, req.ParentID)
			if err != nil {
				return &typeaheadReply{Action: typeaheadError, Error: appErrors.FromError(err)}
			}
			parent = found
		}
		picker.Select(*parent)
		return &typeaheadReply{Action: typeaheadSelected, Parent: parent}
	case typeaheadResolve:
		parent, err := picker.Resolve(ctx, req.NationalID)
		if err != nil {
			return &typeaheadReply{Action: typeaheadError, Error: appErrors.FromError(err)}
		}
		return &typeaheadReply{Action: typeaheadResolved, Parent: parent}
	default:
		return &typeaheadReply{Action: typeaheadError, Error: appErrors.Clone(appErrors.ErrValidation, "unknown action "+req.Action)}
	}
}

func findParent(parents []models.Parent, id string) *models.Parent {
	for i := range parents {
		if parents[i].ID == id {
			parent := parents[i]
			return &parent
		}
	}
	return nil
}
