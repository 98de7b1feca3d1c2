package health

import (
	"github.com/gin-gonic/gin"

	"github.com/kampusgratis/assistant/pkg/sdk"
)

// RegisterRoutes registers the routes for the health module
func RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/health", getStatus)
}

// getStatus reports service liveness
func getStatus(c *gin.Context) {
	c.JSON(sdk.NewSuccess("Service is healthy").AsGinResponse())
}
