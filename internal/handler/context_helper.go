package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-desk/internal/middleware"
	"github.com/noah-isme/complaint-desk/internal/models"
)

func accountFromContext(c *gin.Context) (models.Account, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		return models.Account{}, false
	}
	return claims.Account(), true
}
