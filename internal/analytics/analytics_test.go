package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kampusgratis/assistant/internal/stores/session"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&session.Turn{}))

	service, err := NewService(db, 0.14)
	require.NoError(t, err)
	return service, db
}

func TestNormalizeQuestion(t *testing.T) {
	assert.Equal(t, "berapa biaya kuliah", NormalizeQuestion("Berapa biaya kuliah?"))
	assert.Equal(t, "berapa biaya kuliah", NormalizeQuestion("  BERAPA   biaya, kuliah!!  "))
	assert.Equal(t, "", NormalizeQuestion("?!."))
}

func TestRecordQuestion(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	t.Run("phrasing variants share one counter", func(t *testing.T) {
		require.NoError(t, service.RecordQuestion(ctx, "Berapa biaya kuliah?", "id"))
		require.NoError(t, service.RecordQuestion(ctx, "berapa biaya KULIAH", "id"))
		require.NoError(t, service.RecordQuestion(ctx, "Kapan pendaftaran dibuka?", "id"))

		top, err := service.TopQuestions(ctx, 10, "id")
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, "berapa biaya kuliah", top[0].Question)
		assert.Equal(t, 2, top[0].AskedCount)
	})

	t.Run("languages count separately", func(t *testing.T) {
		require.NoError(t, service.RecordQuestion(ctx, "How much is tuition?", "en"))

		top, err := service.TopQuestions(ctx, 10, "en")
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, 1, top[0].AskedCount)
	})

	t.Run("empty after normalization is skipped", func(t *testing.T) {
		require.NoError(t, service.RecordQuestion(ctx, "?!", "id"))

		top, err := service.TopQuestions(ctx, 10, "id")
		require.NoError(t, err)
		assert.Len(t, top, 2)
	})
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	service, db := newTestService(t)

	now := time.Now()
	require.NoError(t, db.Create(&session.Turn{
		SessionID: "sess_1", Role: session.TurnRoleUser, Content: "q", CreatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&session.Turn{
		SessionID: "sess_1", Role: session.TurnRoleAssistant, Content: "a",
		TokensUsed: 500_000, ResponseTimeMs: 1200, CreatedAt: now,
	}).Error)

	stats, err := service.Stats(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Turns)
	assert.Equal(t, int64(500_000), stats.TotalTokens)
	assert.InDelta(t, 0.07, stats.EstimatedCostUSD, 1e-9)
}
