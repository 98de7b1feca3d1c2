package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kampusgratis/assistant/internal/identity"
	"github.com/kampusgratis/assistant/internal/knowledge"
	"github.com/kampusgratis/assistant/internal/llm"
	"github.com/kampusgratis/assistant/internal/prompt"
	"github.com/kampusgratis/assistant/internal/quota"
	"github.com/kampusgratis/assistant/internal/stores/session"
)

/** Stubs **/

type stubTracker struct {
	snap       quota.Snapshot
	checkErr   error
	incErr     error
	checked    []string
	increments []string
}

func (s *stubTracker) Check(ctx context.Context, identifier string, kind identity.Kind) (quota.Snapshot, error) {
	s.checked = append(s.checked, identifier)
	return s.snap, s.checkErr
}

func (s *stubTracker) Increment(ctx context.Context, identifier string, kind identity.Kind) error {
	s.increments = append(s.increments, identifier)
	return s.incErr
}

func (s *stubTracker) Reset(ctx context.Context, identifier string) error {
	return nil
}

type stubStore struct {
	gotSessionID string
	turns        []session.Turn
	history      []session.Turn
	createErr    error
	appendErr    error
	historyErr   error
}

func (s *stubStore) GetOrCreate(ctx context.Context, sessionID string, role identity.RoleDescriptor, language string, meta session.ClientMeta) (*session.Session, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.gotSessionID = sessionID
	return &session.Session{SessionID: sessionID, Role: string(role.Kind), Language: language}, nil
}

func (s *stubStore) AppendTurn(ctx context.Context, turn *session.Turn) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.turns = append(s.turns, *turn)
	return nil
}

func (s *stubStore) History(ctx context.Context, sessionID string, limit int) ([]session.Turn, error) {
	return s.history, s.historyErr
}

type stubSearcher struct {
	hits     []knowledge.Hit
	gotQuery string
	gotLang  string
}

func (s *stubSearcher) Search(ctx context.Context, query, lang string, limit int, scoreThreshold float32, category string) []knowledge.Hit {
	s.gotQuery = query
	s.gotLang = lang
	return s.hits
}

type stubGenerator struct {
	result     llm.Result
	gotPayload prompt.Payload
}

func (s *stubGenerator) Generate(ctx context.Context, payload prompt.Payload, temperature float32, maxTokens int) llm.Result {
	s.gotPayload = payload
	return s.result
}

type stubDetector struct {
	lang string
}

func (s *stubDetector) Detect(text string) string {
	return s.lang
}

type stubRecorder struct {
	questions []string
	err       error
}

func (s *stubRecorder) RecordQuestion(ctx context.Context, question, lang string) error {
	s.questions = append(s.questions, question)
	return s.err
}

type stubAcademic struct {
	text string
	err  error
}

func (s *stubAcademic) FetchContext(ctx context.Context, academicID string) (string, error) {
	return s.text, s.err
}

/** Helpers **/

type fixture struct {
	tracker   *stubTracker
	store     *stubStore
	searcher  *stubSearcher
	generator *stubGenerator
	recorder  *stubRecorder
	pipeline  *Pipeline
	resolver  *identity.Resolver
}

func newFixture() *fixture {
	f := &fixture{
		tracker: &stubTracker{snap: quota.Snapshot{
			Allowed:   true,
			Limit:     20,
			Used:      3,
			Remaining: 17,
			ResetAt:   time.Now().Add(6 * time.Hour),
		}},
		store:    &stubStore{},
		searcher: &stubSearcher{},
		generator: &stubGenerator{result: llm.Result{
			Success:          true,
			Text:             "Pendaftaran dibuka setiap semester.",
			PromptTokens:     120,
			CompletionTokens: 40,
			TotalTokens:      160,
			CostUSD:          0.0001,
			LatencyMs:        250,
		}},
		recorder: &stubRecorder{},
		resolver: identity.NewResolver("test-secret", "assistant"),
	}

	composer := prompt.NewComposer(prompt.NewTemplates(""), &stubAcademic{text: "Data Mahasiswa:\nNama: Budi"}, 5)
	f.pipeline = NewPipeline(Deps{
		Resolver: f.resolver,
		Tracker:  f.tracker,
		Sessions: f.store,
		Searcher: f.searcher,
		Composer: composer,
		Invoker:  f.generator,
		Detector: &stubDetector{lang: "id"},
		Recorder: f.recorder,
	}, DefaultOptions())
	return f
}

/** Tests **/

func TestProcessSuccess(t *testing.T) {
	f := newFixture()
	f.searcher.hits = []knowledge.Hit{
		{Question: "Kapan pendaftaran?", Answer: "Setiap semester.", Score: 0.91},
	}

	result := f.pipeline.Process(context.Background(), Request{Message: "Kapan pendaftaran dibuka?"})

	require.True(t, result.Success)
	assert.Equal(t, "Pendaftaran dibuka setiap semester.", result.Reply)
	assert.Equal(t, identity.KindPublic, result.Role)
	assert.Equal(t, "id", result.Language)
	assert.True(t, strings.HasPrefix(result.SessionID, "sess_"))
	assert.Len(t, result.KnowledgeHits, 1)
	assert.Equal(t, 160, result.TokensUsed)

	// User turn first, assistant turn second
	require.Len(t, f.store.turns, 2)
	assert.Equal(t, session.TurnRoleUser, f.store.turns[0].Role)
	assert.Equal(t, "Kapan pendaftaran dibuka?", f.store.turns[0].Content)
	assert.Equal(t, session.TurnRoleAssistant, f.store.turns[1].Role)
	assert.Equal(t, 160, f.store.turns[1].TokensUsed)

	// Quota consumed exactly once, snapshot reflects it
	require.Len(t, f.tracker.increments, 1)
	assert.Equal(t, result.SessionID, f.tracker.increments[0])
	assert.Equal(t, 4, result.Quota.Used)
	assert.Equal(t, 16, result.Quota.Remaining)

	assert.Equal(t, []string{"Kapan pendaftaran dibuka?"}, f.recorder.questions)
}

func TestProcessQuotaExceeded(t *testing.T) {
	f := newFixture()
	resetAt := time.Now().Add(3 * time.Hour)
	f.tracker.snap = quota.Snapshot{Allowed: false, Limit: 20, Used: 20, Remaining: 0, ResetAt: resetAt}

	result := f.pipeline.Process(context.Background(), Request{Message: "Halo", SessionID: "sess_abc123"})

	assert.False(t, result.Success)
	assert.Equal(t, CodeQuotaExceeded, result.ErrorCode)
	assert.Contains(t, result.Message, resetAt.Format("15:04"))
	assert.Equal(t, 20, result.Quota.Used)

	// Nothing past the gate runs
	assert.Empty(t, f.store.turns)
	assert.Empty(t, f.tracker.increments)
	assert.Empty(t, f.store.gotSessionID)
}

func TestProcessQuotaStoreDown(t *testing.T) {
	f := newFixture()
	f.tracker.checkErr = fmt.Errorf("read counter: %w", quota.ErrStoreUnavailable)

	result := f.pipeline.Process(context.Background(), Request{Message: "Halo"})

	assert.False(t, result.Success)
	assert.Equal(t, CodeInternalError, result.ErrorCode)
	assert.Empty(t, f.store.turns)
	assert.Empty(t, f.tracker.increments)
}

func TestProcessGenerationFailure(t *testing.T) {
	f := newFixture()
	f.generator.result = llm.Result{
		Success: false,
		Reason:  llm.ReasonTimeout,
		Err:     errors.New("context deadline exceeded"),
	}

	result := f.pipeline.Process(context.Background(), Request{Message: "Halo"})

	assert.False(t, result.Success)
	assert.Equal(t, CodeGenerationFailed, result.ErrorCode)
	assert.NotContains(t, result.Message, "deadline")

	// User turn survives the failed generation, assistant turn does not
	require.Len(t, f.store.turns, 1)
	assert.Equal(t, session.TurnRoleUser, f.store.turns[0].Role)

	// A failed request consumes no quota
	assert.Empty(t, f.tracker.increments)
}

func TestProcessGenerationFailureAdminSeesCause(t *testing.T) {
	f := newFixture()
	f.generator.result = llm.Result{
		Success:    false,
		Reason:     llm.ReasonUpstreamError,
		StatusCode: 502,
		Err:        errors.New("bad gateway from provider"),
	}

	token, err := f.resolver.AdminToken("42", "Ops", time.Hour)
	require.NoError(t, err)

	result := f.pipeline.Process(context.Background(), Request{Message: "status?", Credential: token})

	assert.Equal(t, CodeGenerationFailed, result.ErrorCode)
	assert.Contains(t, result.Message, "bad gateway from provider")
}

func TestProcessAuthenticatedSessionIsDeterministic(t *testing.T) {
	f := newFixture()
	token, err := f.resolver.StudentToken("17", "Budi Santoso", "2021001", time.Hour)
	require.NoError(t, err)

	// A supplied session id must not let a student attach elsewhere
	result := f.pipeline.Process(context.Background(), Request{
		Message:    "Nilai saya?",
		SessionID:  "sess_stolen0000000000",
		Credential: token,
	})

	require.True(t, result.Success)
	assert.Equal(t, "user_17", result.SessionID)
	assert.Equal(t, "user_17", f.store.gotSessionID)
	assert.Equal(t, []string{"user_17"}, f.tracker.checked)
	assert.Equal(t, identity.KindStudent, result.Role)
}

func TestProcessLanguageSelection(t *testing.T) {
	t.Run("explicit language skips detection", func(t *testing.T) {
		f := newFixture()
		result := f.pipeline.Process(context.Background(), Request{Message: "Halo", Language: "en"})
		require.True(t, result.Success)
		assert.Equal(t, "en", result.Language)
		assert.Equal(t, "en", f.searcher.gotLang)
	})

	t.Run("missing language falls back to detection", func(t *testing.T) {
		f := newFixture()
		result := f.pipeline.Process(context.Background(), Request{Message: "Bagaimana cara mendaftar?"})
		require.True(t, result.Success)
		assert.Equal(t, "id", result.Language)
	})

	t.Run("unknown code falls back to detection", func(t *testing.T) {
		f := newFixture()
		result := f.pipeline.Process(context.Background(), Request{Message: "Halo", Language: "fr"})
		require.True(t, result.Success)
		assert.Equal(t, "id", result.Language)
	})
}

func TestProcessHistoryFlowsIntoPayload(t *testing.T) {
	f := newFixture()
	f.store.history = []session.Turn{
		{Role: session.TurnRoleUser, Content: "Halo"},
		{Role: session.TurnRoleAssistant, Content: "Halo! Ada yang bisa dibantu?"},
	}

	result := f.pipeline.Process(context.Background(), Request{Message: "Lanjut"})

	require.True(t, result.Success)
	require.Len(t, f.generator.gotPayload.History, 2)
	assert.Equal(t, "Halo", f.generator.gotPayload.History[0].Content)
	assert.Equal(t, "Lanjut", f.generator.gotPayload.UserMessage)
}

func TestProcessBestEffortSideEffects(t *testing.T) {
	t.Run("recorder failure does not fail the request", func(t *testing.T) {
		f := newFixture()
		f.recorder.err = errors.New("analytics db down")
		result := f.pipeline.Process(context.Background(), Request{Message: "Halo"})
		assert.True(t, result.Success)
	})

	t.Run("increment failure does not fail the request", func(t *testing.T) {
		f := newFixture()
		f.tracker.incErr = errors.New("counter store down")
		result := f.pipeline.Process(context.Background(), Request{Message: "Halo"})
		assert.True(t, result.Success)
		// Snapshot not advanced when the increment was lost
		assert.Equal(t, 3, result.Quota.Used)
	})
}

func TestProcessPersistUserTurnFailure(t *testing.T) {
	f := newFixture()
	f.store.appendErr = errors.New("disk full")

	result := f.pipeline.Process(context.Background(), Request{Message: "Halo"})

	assert.False(t, result.Success)
	assert.Equal(t, CodeInternalError, result.ErrorCode)
	assert.Empty(t, f.tracker.increments)
}
