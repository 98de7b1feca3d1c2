// Package llm calls the external generation provider, captures token and
// cost telemetry, and classifies failures so the pipeline never crashes
// on a provider problem.
package llm

import (
	"context"
	"errors"
	"log"
	"net/url"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kampusgratis/assistant/internal/prompt"
	"github.com/kampusgratis/assistant/internal/stores/session"
)

// Failure reasons. They surface in Result.Reason when Success is false
const (
	ReasonTimeout        = "timeout"
	ReasonUpstreamError  = "upstream_error"
	ReasonTransportError = "transport_error"
)

// Result is the outcome of one generation call
type Result struct {
	Success          bool
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CostUSD          float64
	LatencyMs        int64

	// Failure details; zero values on success
	Reason     string
	StatusCode int
	Err        error
}

// Config holds provider settings. Rates are USD per one million tokens
type Config struct {
	APIKey     string
	BaseURL    string // empty targets the default OpenAI endpoint
	Model      string
	Timeout    time.Duration
	InputRate  float64
	OutputRate float64
}

// Invoker generates completions through an OpenAI-compatible provider
type Invoker struct {
	client *openai.Client
	cfg    Config
}

// NewInvoker creates an invoker. A zero timeout defaults to 30 seconds
func NewInvoker(cfg Config) *Invoker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Invoker{client: openai.NewClientWithConfig(clientConfig), cfg: cfg}
}

// Generate runs one completion under the invoker's own wall-clock budget.
// The deadline is enforced here rather than left to the caller
func (inv *Invoker) Generate(ctx context.Context, payload prompt.Payload, temperature float32, maxTokens int) Result {
	ctx, cancel := context.WithTimeout(ctx, inv.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := inv.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       inv.cfg.Model,
		Messages:    buildMessages(payload),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	latency := time.Since(start).Milliseconds()

	if err != nil {
		result := classify(err)
		result.LatencyMs = latency
		log.Printf("[LLM]: Generation failed (%s): %v", result.Reason, err)
		return result
	}

	if len(resp.Choices) == 0 {
		return Result{
			Reason:    ReasonUpstreamError,
			LatencyMs: latency,
			Err:       errors.New("provider returned no choices"),
		}
	}

	cost := float64(resp.Usage.PromptTokens)/1_000_000*inv.cfg.InputRate +
		float64(resp.Usage.CompletionTokens)/1_000_000*inv.cfg.OutputRate

	log.Printf("[LLM]: %s | tokens %d (in %d, out %d) | $%.6f | %dms",
		inv.cfg.Model, resp.Usage.TotalTokens, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, cost, latency)

	return Result{
		Success:          true,
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		CostUSD:          cost,
		LatencyMs:        latency,
	}
}

// buildMessages translates the payload into the provider wire format:
// system instruction (with context appended), history, then the user turn
func buildMessages(payload prompt.Payload) []openai.ChatCompletionMessage {
	systemContent := payload.SystemInstruction
	if payload.ContextBlock != "" {
		systemContent += "\n\nContext:\n" + payload.ContextBlock
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemContent},
	}

	for _, turn := range payload.History {
		role := openai.ChatMessageRoleUser
		if turn.Role == session.TurnRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: payload.UserMessage,
	})
}

// classify maps a provider error onto the failure taxonomy
func classify(err error) Result {
	if errors.Is(err, context.DeadlineExceeded) {
		return Result{Reason: ReasonTimeout, Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return Result{Reason: ReasonUpstreamError, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return Result{Reason: ReasonUpstreamError, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return Result{Reason: ReasonTimeout, Err: err}
	}

	return Result{Reason: ReasonTransportError, Err: err}
}
