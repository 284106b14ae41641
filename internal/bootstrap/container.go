package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"doc-chat-be/internal/config"
	"doc-chat-be/internal/controller"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/service"
	"doc-chat-be/pkg/chunker"
	"doc-chat-be/pkg/database"
	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/extract"
	"doc-chat-be/pkg/llm/factory"
	"doc-chat-be/pkg/retrieval"
	"doc-chat-be/pkg/session"
	"doc-chat-be/pkg/streamer"
	"doc-chat-be/pkg/vectorstore"
	pgvectorstore "doc-chat-be/pkg/vectorstore/pgvector"
	qdrantstore "doc-chat-be/pkg/vectorstore/qdrant"
)

type Container struct {
	// Controllers
	HealthController  controller.IHealthController
	IngestController  controller.IIngestController
	ChatController    controller.IChatController
	SessionController controller.ISessionController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Exposed for graceful shutdown
	VectorStore vectorstore.Store
	Logger      logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Session Store (Redis)
	redisOpts, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Fatalf("[FATAL] Invalid REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	sessionStore := session.NewRedisStore(
		redisClient,
		cfg.Session.DefaultQuota,
		time.Duration(cfg.Session.TTLHours)*time.Hour,
	)

	// 3. Vector Store based on Config
	var store vectorstore.Store
	switch cfg.Vector.Backend {
	case "pgvector":
		gormDB, err := database.NewGormDBFromDSN(cfg.Vector.PostgresDSN)
		if err != nil {
			log.Fatalf("[FATAL] Unable to connect to GORM DB: %v", err)
		}
		store, err = pgvectorstore.NewStore(gormDB)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize pgvector store: %v", err)
		}
		log.Printf("[INFO] Using Vector Store: PGVECTOR")
	default:
		store, err = qdrantstore.NewStore(context.Background(), qdrantstore.Config{
			Host:       cfg.Vector.QdrantHost,
			Port:       cfg.Vector.QdrantPort,
			Collection: cfg.Vector.QdrantCollection,
			Dimension:  cfg.Vector.Dimension,
		})
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize qdrant store: %v", err)
		}
		log.Printf("[INFO] Using Vector Store: QDRANT (%s)", cfg.Vector.QdrantCollection)
	}

	// 4. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 5. AI Providers based on Config
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.OpenAI,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 6. Pipeline Components
	registry := extract.NewRegistry()
	registry.Register(extract.NewPlainTextExtractor(), ".txt")
	registry.Register(extract.NewMarkdownExtractor(), ".md", ".markdown")
	webExtractor := extract.NewWebExtractor(30 * time.Second)

	textChunker := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	retriever := retrieval.NewEngine(store, embeddingProvider)
	answerStreamer := streamer.New(llmProvider)

	// 7. Services
	ingestService := service.NewIngestService(
		registry, webExtractor, textChunker, embeddingProvider, store, sessionStore, sysLogger,
	)
	chatService := service.NewChatService(sessionStore, retriever, answerStreamer, sysLogger)
	sessionService := service.NewSessionService(sessionStore, pubSub, cfg.App.PurgeTopic, sysLogger)
	consumerService := service.NewConsumerService(pubSub, cfg.App.PurgeTopic, store, sysLogger)

	// 8. Controllers
	return &Container{
		HealthController:  controller.NewHealthController(cfg.App.Environment),
		IngestController:  controller.NewIngestController(ingestService),
		ChatController:    controller.NewChatController(chatService),
		SessionController: controller.NewSessionController(sessionService),
		ConsumerService:   consumerService,
		VectorStore:       store,
		Logger:            sysLogger,
	}
}
