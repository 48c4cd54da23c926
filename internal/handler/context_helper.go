package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-exam-api/internal/middleware"
	"github.com/noah-isme/uni-exam-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.APIClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.APIClaims)
	if !ok {
		return nil
	}
	return claims
}
