package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/escuela-portal-api/internal/middleware"
	"github.com/noah-isme/escuela-portal-api/internal/models"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
	"github.com/noah-isme/escuela-portal-api/pkg/response"
)

// sessionFromContext returns the caller's session; an unauthenticated request yields the
// zero session, which every service rejects as unauthorized.
func sessionFromContext(c *gin.Context) models.Session {
	claims, ok := middleware.Claims(c)
	if !ok {
		return models.Session{}
	}
	return claims.Session()
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
