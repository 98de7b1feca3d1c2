package chat

import (
	"github.com/gin-gonic/gin"

	chatcore "github.com/kampusgratis/assistant/internal/chat"
	"github.com/kampusgratis/assistant/internal/stores/session"
)

var pipeline *chatcore.Pipeline
var store session.Store

// Init wires the module's collaborators. Must be called before serving
func Init(p *chatcore.Pipeline, s session.Store) {
	pipeline = p
	store = s
}

// Register routes for the chat module
func RegisterRoutes(g *gin.RouterGroup) {
	group := g.Group("/chat")

	group.POST("/message", PostMessage)           // Send a message through the pipeline
	group.GET("/history/:session_id", GetHistory) // Fetch prior turns of a conversation
}
