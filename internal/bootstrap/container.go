package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"nexus-chat-be/internal/config"
	"nexus-chat-be/internal/controller"
	"nexus-chat-be/internal/handler"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/pkg/metrics"
	"nexus-chat-be/internal/pkg/ratelimit"
	"nexus-chat-be/internal/repository/contract"
	"nexus-chat-be/internal/repository/implementation"
	"nexus-chat-be/internal/repository/memory"
	"nexus-chat-be/internal/repository/unitofwork"
	"nexus-chat-be/internal/service"
	"nexus-chat-be/internal/websocket"
	"nexus-chat-be/pkg/embedding"
	"nexus-chat-be/pkg/events"
	"nexus-chat-be/pkg/llm/factory"
	pktNats "nexus-chat-be/pkg/nats"
	"nexus-chat-be/pkg/rag/history"
	msgfactory "nexus-chat-be/pkg/rag/message"
	"nexus-chat-be/pkg/rag/response"
	"nexus-chat-be/pkg/rag/search"
	"nexus-chat-be/pkg/rag/signal"
	"nexus-chat-be/pkg/worker"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const profileCacheTTL = 5 * time.Minute

type Container struct {
	// Controllers
	GroupController   controller.IGroupController
	MessageController controller.IMessageController
	QueryController   controller.IQueryController

	// Realtime
	ChatSocketHandler *handler.ChatSocketHandler
	WebSocketHub      *websocket.Hub

	// Background (run and stopped by main.go)
	IndexingService service.IIndexingService
	WorkerPool      *worker.Pool

	RateLimiter ratelimit.Limiter
	Metrics     *metrics.Metrics
	Registry    *prometheus.Registry
	Logger      logger.ILogger

	closers []func() error
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	realtimeLogger := logger.NewIsolatedLogger(cfg.App.RealtimeLogPath)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	c := &Container{Metrics: m, Registry: registry, Logger: sysLogger}

	// 2. Job queue and worker pool
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	pool := worker.NewPool(cfg.Realtime.WorkerPoolSize, service.TaskErrorHandler(sysLogger, m),
		worker.WithMaxPending(cfg.Realtime.WorkerMaxPending))

	// 3. AI providers
	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "openai":
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.OpenAIBaseURL, cfg.Ai.EmbeddingModel)
	default:
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		APIKey:        cfg.Ai.OpenAIAPIKey,
		BaseURL:       cfg.Ai.OpenAIBaseURL,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	vectorIndex := newVectorIndex(db, cfg)

	// 4. Infrastructure
	var publisher events.Publisher = events.NopPublisher{}
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		publisher = natsPub
		c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
	}

	c.RateLimiter = newRateLimiter(cfg, sysLogger, c)

	// 5. Services
	indexer := search.NewIndexer(embeddingProvider, vectorIndex)
	indexingService := service.NewIndexingService(pubSub, cfg.Realtime.IndexTopic, uowFactory, indexer, pool, m, sysLogger)

	profiles := service.NewProfileDirectory(uowFactory, memory.NewProfileCache(profileCacheTTL), sysLogger)
	workspaceService := service.NewWorkspaceService(uowFactory, profiles, indexingService, publisher, sysLogger)

	wsHub := websocket.NewHub(m, realtimeLogger)

	messageFactory := msgfactory.NewFactory()
	messageService := service.NewMessageService(uowFactory, workspaceService, indexingService, wsHub, publisher, messageFactory, m, sysLogger)

	generator := response.NewGenerator(llmProvider, response.Config{
		AttemptTimeout:  time.Duration(cfg.Ai.GenerationTimeout) * time.Second,
		MaxAttempts:     cfg.Ai.GenerationRetries,
		InitialInterval: response.DefaultConfig().InitialInterval,
		MaxInterval:     response.DefaultConfig().MaxInterval,
		Temperature:     cfg.Ai.Temperature,
		MaxTokens:       cfg.Ai.MaxTokens,
	}, sysLogger)
	retriever := search.NewRetriever(embeddingProvider, vectorIndex, sysLogger)

	orchestrator := service.NewChatOrchestrator(
		service.OrchestratorConfig{
			HistoryLimit:   cfg.Ai.HistoryLimit,
			ObserverWindow: cfg.Ai.ObserverWindow,
			TopK:           cfg.Ai.TopK,
		},
		messageService,
		workspaceService,
		indexingService,
		wsHub,
		signal.NewTriggerPolicy(cfg.Ai.TriggerMode, cfg.Ai.MentionKeyword),
		history.NewLoader(uowFactory, profiles),
		retriever,
		generator,
		messageFactory,
		pool,
		m,
		sysLogger,
	)
	queryService := service.NewQueryService(workspaceService, profiles, retriever, generator, cfg.Ai.TopK, sysLogger)

	// 6. Handlers and controllers
	c.ChatSocketHandler = handler.NewChatSocketHandler(
		wsHub,
		orchestrator,
		messageService,
		workspaceService,
		profiles,
		c.RateLimiter,
		m,
		cfg.Auth.JwtSecret,
		realtimeLogger,
	)
	c.WebSocketHub = wsHub
	c.IndexingService = indexingService
	c.WorkerPool = pool
	c.GroupController = controller.NewGroupController(workspaceService)
	c.MessageController = controller.NewMessageController(messageService, profiles)
	c.QueryController = controller.NewQueryController(queryService)

	c.closers = append(c.closers, realtimeLogger.Sync, sysLogger.Sync)
	return c
}

// newVectorIndex picks pgvector on postgres unless the in-process index is
// requested. sqlite always uses the in-process index.
func newVectorIndex(db *gorm.DB, cfg *config.Config) contract.VectorIndex {
	if cfg.Vector.Backend == "pgvector" && cfg.Database.Driver != "sqlite" {
		log.Printf("[INFO] Using Vector Index: pgvector")
		return implementation.NewVectorRecordRepository(db)
	}

	index, err := memory.NewVectorIndex(cfg.Vector.StorePath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to open in-process vector index: %v", err)
	}
	log.Printf("[INFO] Using Vector Index: chromem (path=%q)", cfg.Vector.StorePath)
	return index
}

// newRateLimiter prefers the shared Redis window and falls back to a local
// limiter whenever Redis errors.
func newRateLimiter(cfg *config.Config, log logger.ILogger, c *Container) ratelimit.Limiter {
	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	local := ratelimit.NewLocalLimiter(cfg.RateLimit.Requests, window)

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("BOOTSTRAP", "Redis unreachable, rate limiting per process", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return local
	}

	c.closers = append(c.closers, rdb.Close)
	return ratelimit.NewFallbackLimiter(ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Requests, window), local, log)
}

// Shutdown stops background work: no new index jobs, then the pool drains
// or is cancelled at the deadline.
func (c *Container) Shutdown(ctx context.Context) error {
	if err := c.IndexingService.Close(); err != nil {
		c.Logger.Warn("BOOTSTRAP", "Failed to close indexing queue", map[string]interface{}{"error": err.Error()})
	}

	abandoned, err := c.WorkerPool.Shutdown(ctx)
	if abandoned > 0 {
		c.Logger.Warn("BOOTSTRAP", "Abandoned background tasks at shutdown", map[string]interface{}{"count": abandoned})
	}

	for _, closeFn := range c.closers {
		_ = closeFn()
	}
	if err != nil {
		return fmt.Errorf("worker pool shutdown: %w", err)
	}
	return nil
}
