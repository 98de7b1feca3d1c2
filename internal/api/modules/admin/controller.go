package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kampusgratis/assistant/internal/knowledge"
	"github.com/kampusgratis/assistant/internal/language"
	"github.com/kampusgratis/assistant/pkg/sdk"
)

// GetStats handles GET requests for daily conversation volume
func GetStats(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", nil).AsGinResponse())
			return
		}
		day = parsed
	}

	daily, err := stats.Stats(c.Request.Context(), day)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to compute stats", err.Error()).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Stats retrieved successfully", daily).AsGinResponse())
}

// GetUsage handles GET requests for per-role quota consumption over the
// past week
func GetUsage(c *gin.Context) {
	if usage == nil {
		c.JSON(sdk.NewFailResponse(http.StatusNotImplemented, "Usage aggregation not available for this quota driver").AsGinResponse())
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid days, expected 1..90", nil).AsGinResponse())
			return
		}
		days = parsed
	}

	now := time.Now()
	rows, err := usage.UsageStats(c.Request.Context(), now.AddDate(0, 0, -(days-1)), now)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to aggregate usage", err.Error()).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Usage retrieved successfully", rows).AsGinResponse())
}

// GetPopular handles GET requests for the most asked questions
func GetPopular(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid limit, expected 1..100", nil).AsGinResponse())
		return
	}

	lang := language.Normalize(c.Query("language"))

	questions, err := stats.TopQuestions(c.Request.Context(), limit, lang)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to get popular questions", err.Error()).AsGinResponse())
		return
	}

	entries := make([]sdk.PopularQuestionEntry, 0, len(questions))
	for _, q := range questions {
		entries = append(entries, sdk.PopularQuestionEntry{
			Question:    q.Question,
			Language:    q.Language,
			AskedCount:  q.AskedCount,
			LastAskedAt: q.LastAskedAt,
		})
	}

	c.JSON(sdk.NewSuccessResponse("Popular questions retrieved successfully", entries).AsGinResponse())
}

// PostFAQs handles POST requests that seed the knowledge base
func PostFAQs(c *gin.Context) {
	var req sdk.SeedFAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	faqs := make([]knowledge.FAQ, 0, len(req.FAQs))
	for _, entry := range req.FAQs {
		faqs = append(faqs, knowledge.FAQ{
			Question: entry.Question,
			Answer:   entry.Answer,
			Category: entry.Category,
		})
	}

	if err := retriever.AddFAQs(c.Request.Context(), req.Language, faqs); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to add FAQ entries", err.Error()).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccess("FAQ entries added successfully").AsGinResponse())
}
