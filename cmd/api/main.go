package main

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/kampusgratis/assistant/internal/analytics"
	"github.com/kampusgratis/assistant/internal/api"
	"github.com/kampusgratis/assistant/internal/api/modules/admin"
	"github.com/kampusgratis/assistant/internal/chat"
	"github.com/kampusgratis/assistant/internal/identity"
	"github.com/kampusgratis/assistant/internal/knowledge"
	"github.com/kampusgratis/assistant/internal/language"
	"github.com/kampusgratis/assistant/internal/llm"
	"github.com/kampusgratis/assistant/internal/maintenance"
	"github.com/kampusgratis/assistant/internal/prompt"
	"github.com/kampusgratis/assistant/internal/quota"
	"github.com/kampusgratis/assistant/internal/stores/session"
	"github.com/kampusgratis/assistant/internal/students"
	"github.com/kampusgratis/assistant/pkg/utils"
)

// Start the API server
func main() {
	// Find env file
	envFile := ".env"
	if os.Getenv("ENV_FILE") != "" {
		envFile = os.Getenv("ENV_FILE")
	}

	// Load global config
	cfg := utils.NewConfigFromEnv(envFile)

	// Primary database connection, shared by sessions, quota, analytics
	db, err := gorm.Open(mysql.Open(cfg.Get("DATABASE_URL")), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	sessions, err := session.NewGormStore(db)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}

	inputRate := cfg.GetFloatWithDefault("LLM_INPUT_RATE", 0.14)
	analyticsSvc, err := analytics.NewService(db, inputRate)
	if err != nil {
		log.Fatalf("Failed to initialize analytics: %v", err)
	}

	// Quota tracker, driver selected by config
	limits := quota.Limits{
		Public:  cfg.GetIntWithDefault("QUOTA_PUBLIC", 20),
		Student: cfg.GetIntWithDefault("QUOTA_STUDENT", 100),
		Admin:   quota.DefaultLimits().Admin,
	}

	var tracker quota.Tracker
	var usage admin.UsageReporter
	switch driver := cfg.GetWithDefault("QUOTA_DRIVER", "mysql"); driver {
	case "redis":
		tracker, err = quota.NewRedisTracker(cfg.Get("REDIS_URL"), limits)
		if err != nil {
			log.Fatalf("Failed to initialize redis quota tracker: %v", err)
		}
	case "memory":
		tracker = quota.NewMemoryTracker(limits)
	default:
		gormTracker, err := quota.NewGormTracker(db, limits)
		if err != nil {
			log.Fatalf("Failed to initialize quota tracker: %v", err)
		}
		tracker = gormTracker
		usage = gormTracker

		// Old quota rows are only accumulated by the database driver
		scheduler := maintenance.NewScheduler(gormTracker, time.Duration(cfg.GetIntWithDefault("QUOTA_RETENTION_DAYS", 30))*24*time.Hour)
		if err := scheduler.Start(); err != nil {
			log.Fatalf("Failed to start maintenance scheduler: %v", err)
		}
		defer scheduler.Stop()
	}

	// Identity
	resolver := identity.NewResolver(cfg.Get("JWT_SECRET"), cfg.GetWithDefault("JWT_ISSUER", "kampusgratis"))

	// Knowledge base
	index, err := knowledge.NewQdrantIndex(knowledge.QdrantConfig{
		Host:   cfg.GetWithDefault("QDRANT_HOST", "localhost"),
		Port:   cfg.GetIntWithDefault("QDRANT_PORT", 6334),
		APIKey: cfg.Get("QDRANT_API_KEY"),
		UseTLS: cfg.GetBool("QDRANT_USE_TLS"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize vector index: %v", err)
	}

	embedder := knowledge.NewOpenAIEmbedder(
		cfg.Get("EMBEDDING_API_KEY"),
		cfg.Get("EMBEDDING_BASE_URL"),
		cfg.GetWithDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
	)

	retriever := knowledge.NewRetriever(embedder, index,
		cfg.GetWithDefault("QDRANT_COLLECTION_ID", "faq_public_id"),
		cfg.GetWithDefault("QDRANT_COLLECTION_EN", "faq_public_en"),
	)

	// Academic records, optional
	academic := students.NewService(nil)
	if dsn := cfg.Get("LMS_DATABASE_URL"); dsn != "" {
		academic, err = students.NewMySqlService(dsn)
		if err != nil {
			log.Fatalf("Failed to open LMS database: %v", err)
		}
	}

	composer := prompt.NewComposer(
		prompt.NewTemplates(cfg.GetWithDefault("PROMPTS_DIR", "prompts")),
		academic,
		cfg.GetIntWithDefault("HISTORY_WINDOW", prompt.DefaultHistoryWindow),
	)

	invoker := llm.NewInvoker(llm.Config{
		APIKey:     cfg.Get("LLM_API_KEY"),
		BaseURL:    cfg.GetWithDefault("LLM_BASE_URL", "https://api.deepseek.com/v1"),
		Model:      cfg.GetWithDefault("LLM_MODEL", "deepseek-chat"),
		Timeout:    cfg.GetDurationWithDefault("LLM_TIMEOUT", 30*time.Second),
		InputRate:  inputRate,
		OutputRate: cfg.GetFloatWithDefault("LLM_OUTPUT_RATE", 0.28),
	})

	pipeline := chat.NewPipeline(chat.Deps{
		Resolver: resolver,
		Tracker:  tracker,
		Sessions: sessions,
		Searcher: retriever,
		Composer: composer,
		Invoker:  invoker,
		Detector: language.NewDetector(),
		Recorder: analyticsSvc,
	}, chat.Options{
		RetrievalLimit: cfg.GetIntWithDefault("RETRIEVAL_LIMIT", 3),
		ScoreThreshold: float32(cfg.GetFloatWithDefault("SCORE_THRESHOLD", 0.7)),
		HistoryWindow:  cfg.GetIntWithDefault("HISTORY_WINDOW", prompt.DefaultHistoryWindow),
		Temperature:    float32(cfg.GetFloatWithDefault("LLM_TEMPERATURE", 0.7)),
		MaxTokens:      cfg.GetIntWithDefault("LLM_MAX_TOKENS", 800),
	})

	// Start
	api.Start(cfg, api.Deps{
		Pipeline:  pipeline,
		Sessions:  sessions,
		Resolver:  resolver,
		Analytics: analyticsSvc,
		Retriever: retriever,
		Usage:     usage,
	})
}
