package chat

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	chatcore "github.com/kampusgratis/assistant/internal/chat"
	"github.com/kampusgratis/assistant/internal/stores/session"
	"github.com/kampusgratis/assistant/pkg/sdk"
)

const maxHistoryLimit = 100

// PostMessage handles POST requests that send a message through the pipeline
func PostMessage(c *gin.Context) {
	// Parse request body
	var req sdk.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	result := pipeline.Process(c.Request.Context(), chatcore.Request{
		Message:    req.Message,
		SessionID:  req.SessionID,
		Language:   req.Language,
		Category:   req.Category,
		Credential: extractCredential(c),
		Meta: session.ClientMeta{
			UserAgent: c.Request.UserAgent(),
			IPAddress: c.ClientIP(),
		},
	})

	if !result.Success {
		switch result.ErrorCode {
		case chatcore.CodeQuotaExceeded:
			c.JSON(sdk.NewFailResponseWithData(http.StatusTooManyRequests, result.Message, toQuotaInfo(result)).AsGinResponse())
		case chatcore.CodeGenerationFailed:
			c.JSON(sdk.NewErrorResponse(http.StatusBadGateway, result.Message, nil).AsGinResponse())
		default:
			c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, result.Message, nil).AsGinResponse())
		}
		return
	}

	c.JSON(sdk.NewSuccessResponse("Message processed successfully", toChatResponse(result)).AsGinResponse())
}

// GetHistory handles GET requests for prior turns of a conversation
func GetHistory(c *gin.Context) {
	sessionID := c.Param("session_id")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid limit parameter", nil).AsGinResponse())
		return
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	turns, err := store.History(c.Request.Context(), sessionID, limit)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to get history", err.Error()).AsGinResponse())
		return
	}

	entries := make([]sdk.HistoryEntry, 0, len(turns))
	for _, turn := range turns {
		entries = append(entries, sdk.HistoryEntry{
			Role:      turn.Role,
			Content:   turn.Content,
			CreatedAt: turn.CreatedAt,
		})
	}

	c.JSON(sdk.NewSuccessResponse("History retrieved successfully", sdk.HistoryResponse{
		SessionID: sessionID,
		Turns:     entries,
	}).AsGinResponse())
}

// extractCredential pulls an identity token from the Authorization header
// or a token query parameter
func extractCredential(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return c.Query("token")
}

func toQuotaInfo(result chatcore.Result) sdk.QuotaInfo {
	return sdk.QuotaInfo{
		Limit:     result.Quota.Limit,
		Used:      result.Quota.Used,
		Remaining: result.Quota.Remaining,
		ResetAt:   result.Quota.ResetAt,
	}
}

func toChatResponse(result chatcore.Result) sdk.ChatResponse {
	hits := make([]sdk.KnowledgeHit, 0, len(result.KnowledgeHits))
	for _, hit := range result.KnowledgeHits {
		hits = append(hits, sdk.KnowledgeHit{
			Question: hit.Question,
			Answer:   hit.Answer,
			Score:    hit.Score,
			Category: hit.Category,
		})
	}

	return sdk.ChatResponse{
		Reply:          result.Reply,
		SessionID:      result.SessionID,
		Role:           string(result.Role),
		Language:       result.Language,
		KnowledgeHits:  hits,
		TokensUsed:     result.TokensUsed,
		CostUSD:        result.CostUSD,
		ResponseTimeMs: result.ResponseTimeMs,
		Quota:          toQuotaInfo(result),
	}
}
