package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/skillmatch-hu/skillmatch-api/internal/middleware"
	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
	"github.com/skillmatch-hu/skillmatch-api/pkg/response"
)

// currentUser returns the caller's verified claims. A request that reaches
// a handler without them slipped past the JWT middleware, so the helper
// writes the 401 envelope itself and reports false; callers just return.
func currentUser(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}
