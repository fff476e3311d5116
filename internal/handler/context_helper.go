package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/models"
)

func identityFromContext(c *gin.Context) *models.CallerIdentity {
	return middleware.Identity(c)
}
