// Package chat sequences a single inbound message through identity
// resolution, quota gating, session handling, retrieval, generation,
// and persistence, returning one structured result per request.
package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kampusgratis/assistant/internal/identity"
	"github.com/kampusgratis/assistant/internal/knowledge"
	"github.com/kampusgratis/assistant/internal/language"
	"github.com/kampusgratis/assistant/internal/llm"
	"github.com/kampusgratis/assistant/internal/prompt"
	"github.com/kampusgratis/assistant/internal/quota"
	"github.com/kampusgratis/assistant/internal/stores/session"
)

/** Stages **/

const (
	StageResolvingIdentity   = "RESOLVING_IDENTITY"
	StageCheckingQuota       = "CHECKING_QUOTA"
	StageLoadingSession      = "LOADING_SESSION"
	StageFetchingHistory     = "FETCHING_HISTORY"
	StageRetrievingKnowledge = "RETRIEVING_KNOWLEDGE"
	StageComposingContext    = "COMPOSING_CONTEXT"
	StageGenerating          = "GENERATING"
	StagePersisting          = "PERSISTING"
	StageFinalizing          = "FINALIZING"
)

/** Rejection codes **/

const (
	CodeQuotaExceeded    = "QUOTA_EXCEEDED"
	CodeGenerationFailed = "GENERATION_FAILED"
	CodeInternalError    = "INTERNAL_ERROR"
)

/** Types **/

// Request is one inbound chat message with its ambient metadata
type Request struct {
	Message    string
	SessionID  string
	Language   string
	Category   string
	Credential string
	Meta       session.ClientMeta
}

// Result is the single structured outcome of a pipeline run
type Result struct {
	Success        bool
	Reply          string
	SessionID      string
	Role           identity.Kind
	Language       string
	KnowledgeHits  []knowledge.Hit
	TokensUsed     int
	CostUSD        float64
	ResponseTimeMs int64
	Quota          quota.Snapshot

	// Set on rejection only
	ErrorCode string
	Message   string
}

// Options bound retrieval and generation per request
type Options struct {
	RetrievalLimit int
	ScoreThreshold float32
	HistoryWindow  int
	Temperature    float32
	MaxTokens      int
}

// DefaultOptions returns the production defaults
func DefaultOptions() Options {
	return Options{
		RetrievalLimit: 3,
		ScoreThreshold: 0.7,
		HistoryWindow:  prompt.DefaultHistoryWindow,
		Temperature:    0.7,
		MaxTokens:      800,
	}
}

// Searcher retrieves ranked knowledge hits for a query
type Searcher interface {
	Search(ctx context.Context, query, lang string, limit int, scoreThreshold float32, category string) []knowledge.Hit
}

// Generator produces a completion from an assembled payload
type Generator interface {
	Generate(ctx context.Context, payload prompt.Payload, temperature float32, maxTokens int) llm.Result
}

// LanguageDetector guesses the language code of free text
type LanguageDetector interface {
	Detect(text string) string
}

// QuestionRecorder aggregates asked questions for popularity stats
type QuestionRecorder interface {
	RecordQuestion(ctx context.Context, question, lang string) error
}

// Deps are the collaborators a pipeline sequences
type Deps struct {
	Resolver *identity.Resolver
	Tracker  quota.Tracker
	Sessions session.Store
	Searcher Searcher
	Composer *prompt.Composer
	Invoker  Generator
	Detector LanguageDetector
	Recorder QuestionRecorder // optional
}

// Pipeline runs the request orchestration state machine
type Pipeline struct {
	deps Deps
	opts Options
}

/** Functions **/

// NewPipeline creates a pipeline. Zero option fields take defaults
func NewPipeline(deps Deps, opts Options) *Pipeline {
	def := DefaultOptions()
	if opts.RetrievalLimit <= 0 {
		opts.RetrievalLimit = def.RetrievalLimit
	}
	if opts.ScoreThreshold <= 0 {
		opts.ScoreThreshold = def.ScoreThreshold
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = def.HistoryWindow
	}
	if opts.Temperature <= 0 {
		opts.Temperature = def.Temperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	return &Pipeline{deps: deps, opts: opts}
}

// Process runs one message through the full pipeline. Stage failures
// surface as rejection results; Process itself never panics or returns
// an error to the transport layer
func (p *Pipeline) Process(ctx context.Context, req Request) Result {
	start := time.Now()

	role := p.deps.Resolver.Resolve(req.Credential)

	lang := language.Normalize(req.Language)
	if lang == "" {
		lang = p.deps.Detector.Detect(req.Message)
	}

	// The quota identifier doubles as the session id for anonymous
	// callers, so a first-contact visitor gets theirs minted up front
	sessionID := req.SessionID
	if role.Authenticated() {
		sessionID = role.Identifier()
	} else if sessionID == "" {
		sessionID = session.NewSessionID()
	}
	identifier := sessionID

	snap, err := p.deps.Tracker.Check(ctx, identifier, role.Kind)
	if err != nil {
		return p.reject(StageCheckingQuota, role, lang, CodeInternalError, internalMessage(lang), err)
	}
	if !snap.Allowed {
		return Result{
			Success:   false,
			SessionID: sessionID,
			Role:      role.Kind,
			Language:  lang,
			Quota:     snap,
			ErrorCode: CodeQuotaExceeded,
			Message:   quotaMessage(lang, snap.ResetAt),
		}
	}

	sess, err := p.deps.Sessions.GetOrCreate(ctx, sessionID, role, lang, req.Meta)
	if err != nil {
		return p.reject(StageLoadingSession, role, lang, CodeInternalError, internalMessage(lang), err)
	}
	sessionID = sess.SessionID

	history, err := p.deps.Sessions.History(ctx, sessionID, p.opts.HistoryWindow)
	if err != nil {
		return p.reject(StageFetchingHistory, role, lang, CodeInternalError, internalMessage(lang), err)
	}

	hits := p.deps.Searcher.Search(ctx, req.Message, lang, p.opts.RetrievalLimit, p.opts.ScoreThreshold, req.Category)

	payload := p.deps.Composer.Build(ctx, role, lang, hits, history, req.Message)

	generated := p.deps.Invoker.Generate(ctx, payload, p.opts.Temperature, p.opts.MaxTokens)

	// The user turn is written regardless of the generation outcome so
	// the conversation record stays complete
	userTurn := &session.Turn{
		SessionID: sessionID,
		Role:      session.TurnRoleUser,
		Content:   req.Message,
		Language:  lang,
	}
	if err := p.deps.Sessions.AppendTurn(ctx, userTurn); err != nil {
		return p.reject(StagePersisting, role, lang, CodeInternalError, internalMessage(lang), err)
	}

	if !generated.Success {
		log.Printf("[PIPELINE]: generation failed (reason=%s status=%d): %v", generated.Reason, generated.StatusCode, generated.Err)
		return Result{
			Success:        false,
			SessionID:      sessionID,
			Role:           role.Kind,
			Language:       lang,
			Quota:          snap,
			ResponseTimeMs: time.Since(start).Milliseconds(),
			ErrorCode:      CodeGenerationFailed,
			Message:        generationMessage(lang, role, generated),
		}
	}

	assistantTurn := &session.Turn{
		SessionID:      sessionID,
		Role:           session.TurnRoleAssistant,
		Content:        generated.Text,
		Language:       lang,
		TokensUsed:     generated.TotalTokens,
		ResponseTimeMs: int(generated.LatencyMs),
	}
	if err := p.deps.Sessions.AppendTurn(ctx, assistantTurn); err != nil {
		// The reply exists and the user turn is already durable; readers
		// tolerate the missing assistant turn
		log.Printf("[PIPELINE]: failed to persist assistant turn for %s: %v", sessionID, err)
	}

	// Quota is consumed only by requests that produced an answer
	if err := p.deps.Tracker.Increment(ctx, identifier, role.Kind); err != nil {
		log.Printf("[PIPELINE]: failed to increment quota for %s: %v", identifier, err)
	} else {
		snap.Used++
		if snap.Remaining > 0 {
			snap.Remaining--
		}
	}

	if p.deps.Recorder != nil {
		if err := p.deps.Recorder.RecordQuestion(ctx, req.Message, lang); err != nil {
			log.Printf("[PIPELINE]: failed to record question: %v", err)
		}
	}

	return Result{
		Success:        true,
		Reply:          generated.Text,
		SessionID:      sessionID,
		Role:           role.Kind,
		Language:       lang,
		KnowledgeHits:  hits,
		TokensUsed:     generated.TotalTokens,
		CostUSD:        generated.CostUSD,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Quota:          snap,
	}
}

func (p *Pipeline) reject(stage string, role identity.RoleDescriptor, lang, code, message string, err error) Result {
	log.Printf("[PIPELINE]: stage %s failed: %v", stage, err)
	return Result{
		Success:   false,
		Role:      role.Kind,
		Language:  lang,
		ErrorCode: code,
		Message:   message,
	}
}

func quotaMessage(lang string, resetAt time.Time) string {
	when := resetAt.Format("15:04")
	if lang == language.English {
		return fmt.Sprintf("Daily usage limit reached. Please try again after %s.", when)
	}
	return fmt.Sprintf("Batas penggunaan harian tercapai. Silakan coba lagi setelah %s.", when)
}

func generationMessage(lang string, role identity.RoleDescriptor, generated llm.Result) string {
	if role.Kind == identity.KindAdmin && generated.Err != nil {
		return fmt.Sprintf("Generation failed (%s): %v", generated.Reason, generated.Err)
	}
	if lang == language.English {
		return "Sorry, something went wrong while generating an answer. Please try again."
	}
	return "Maaf, terjadi kendala saat menghasilkan jawaban. Silakan coba lagi."
}

func internalMessage(lang string) string {
	if lang == language.English {
		return "An internal error occurred. Please try again later."
	}
	return "Terjadi kesalahan internal. Silakan coba lagi nanti."
}
