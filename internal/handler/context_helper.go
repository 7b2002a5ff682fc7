package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/certisched-api/internal/middleware"
	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
	"github.com/noah-isme/certisched-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext builds the audit actor from the token claims and the screen header.
func actorFromContext(c *gin.Context) models.Actor {
	actor := models.Actor{Screen: middleware.ScreenName(c, "")}
	if claims := claimsFromContext(c); claims != nil {
		actor.UserID = claims.UserID
		actor.Name = claims.FullName
		actor.Role = claims.Role
	}
	return actor
}

func bindJSON(c *gin.Context, dst interface{}, what string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+what+" payload"))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst interface{}, what string) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+what+" query"))
		return false
	}
	return true
}

// listed responds with items and a total count in meta.
func listed(c *gin.Context, items interface{}, total int) {
	middleware.SetMeta(c, "total", total)
	response.JSON(c, http.StatusOK, items, middleware.ExtractMeta(c))
}
