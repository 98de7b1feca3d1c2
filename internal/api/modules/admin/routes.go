package admin

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kampusgratis/assistant/internal/analytics"
	"github.com/kampusgratis/assistant/internal/identity"
	"github.com/kampusgratis/assistant/internal/knowledge"
	"github.com/kampusgratis/assistant/internal/quota"
	"github.com/kampusgratis/assistant/pkg/sdk"
)

// UsageReporter aggregates per-role quota consumption
type UsageReporter interface {
	UsageStats(ctx context.Context, from, to time.Time) ([]quota.RoleUsage, error)
}

var resolver *identity.Resolver
var stats *analytics.Service
var retriever *knowledge.Retriever
var usage UsageReporter

// Init wires the module's collaborators. usageReporter may be nil when
// the quota driver does not support aggregation
func Init(r *identity.Resolver, s *analytics.Service, k *knowledge.Retriever, u UsageReporter) {
	resolver = r
	stats = s
	retriever = k
	usage = u
}

// Register routes for the admin module
func RegisterRoutes(g *gin.RouterGroup) {
	group := g.Group("/admin")
	group.Use(requireAdmin)

	group.GET("/stats", GetStats)     // Daily conversation volume
	group.GET("/usage", GetUsage)     // Per-role quota consumption
	group.GET("/popular", GetPopular) // Most asked questions
	group.POST("/faqs", PostFAQs)     // Seed the knowledge base
}

// requireAdmin rejects requests whose credential does not resolve to an
// administrator
func requireAdmin(c *gin.Context) {
	header := c.GetHeader("Authorization")
	credential, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		credential = c.Query("token")
	}

	role := resolver.Resolve(credential)
	if role.Kind != identity.KindAdmin {
		c.AbortWithStatusJSON(sdk.NewFailResponse(http.StatusForbidden, "Administrator access required").AsGinResponse())
		return
	}

	c.Next()
}
