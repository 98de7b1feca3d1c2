package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kampusgratis/assistant/internal/analytics"
	chatcore "github.com/kampusgratis/assistant/internal/chat"
	"github.com/kampusgratis/assistant/internal/identity"
	"github.com/kampusgratis/assistant/internal/knowledge"
	"github.com/kampusgratis/assistant/internal/stores/session"
	"github.com/kampusgratis/assistant/pkg/sdk"
	"github.com/kampusgratis/assistant/pkg/utils"

	admin_module "github.com/kampusgratis/assistant/internal/api/modules/admin"
	chat_module "github.com/kampusgratis/assistant/internal/api/modules/chat"
	health_module "github.com/kampusgratis/assistant/internal/api/modules/health"
)

// Deps are the constructed collaborators the transport layer exposes
type Deps struct {
	Pipeline  *chatcore.Pipeline
	Sessions  session.Store
	Resolver  *identity.Resolver
	Analytics *analytics.Service
	Retriever *knowledge.Retriever
	Usage     admin_module.UsageReporter
}

func Start(cfg *utils.Config, deps Deps) {
	// Initialized configuration settings
	port := cfg.GetWithDefault("API_PORT", "8080")

	// Add app level settings/routes
	engine := gin.Default()
	engine.NoRoute(noRouteHandler)

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	health_module.RegisterRoutes(baseGroup)

	chat_module.Init(deps.Pipeline, deps.Sessions)
	chat_module.RegisterRoutes(baseGroup)

	admin_module.Init(deps.Resolver, deps.Analytics, deps.Retriever, deps.Usage)
	admin_module.RegisterRoutes(baseGroup)

	// Then after performing initial setup, start the server
	if err := engine.Run(":" + port); err != nil {
		log.Fatal("[API-MAIN]: Failed to start server: ", err)
	}
}

// noRouteHandler answers unknown paths with the standard envelope
func noRouteHandler(c *gin.Context) {
	c.JSON(sdk.NewFailResponse(http.StatusNotFound, "Route not found").AsGinResponse())
}
