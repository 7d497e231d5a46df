// Command memoryd runs the conversational-agent memory subsystem: the LLM
// gateway, emotion engine, conversation cleaner, hybrid retriever, chat
// orchestrator, GC scheduler, and the HTTP API that fronts them. Grounded
// on intelligencedev-manifold's cmd/agentd/main.go (.env load -> logger
// init -> config load -> otel init -> component wiring -> serve) bootstrap
// shape.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"memoryd/internal/api"
	"memoryd/internal/archive"
	"memoryd/internal/audit"
	"memoryd/internal/auth"
	"memoryd/internal/chat"
	"memoryd/internal/cleaner"
	"memoryd/internal/config"
	"memoryd/internal/database"
	"memoryd/internal/emotion"
	"memoryd/internal/events"
	"memoryd/internal/llm"
	"memoryd/internal/logging"
	"memoryd/internal/metrics"
	"memoryd/internal/retrieval"
	"memoryd/internal/scheduler"
	"memoryd/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.New(cfg.LogLevel)

	metricsShutdown, err := metrics.Setup(context.Background(), metrics.Config{
		Enabled:     os.Getenv("OTEL_METRICS_ENABLED") == "true",
		Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName: "memoryd",
	})
	if err != nil {
		log.Warn().Err(err).Msg("otel metrics init failed, continuing without them")
		metricsShutdown = func(context.Context) error { return nil }
	}
	defer func() { _ = metricsShutdown(context.Background()) }()
	recorder := metrics.NewOtelRecorder("memoryd")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.Connect(ctx, cfg.DB)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureSchema(schemaCtx); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}
	schemaCancel()

	// Stores.
	memStore := store.NewMemoryStore(db)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	cachedMemStore := store.NewCachedMemoryStore(memStore, rdb)
	instrStore := store.NewSystemInstructionStore(db)
	promptStore := store.NewUserCustomPromptStore(db)
	emotionStore := store.NewEmotionStateStore(db)
	userStore := auth.NewUserStore(db)

	// C1: LLM gateway, chained across configured providers.
	var providers []llm.Provider
	if cfg.LLM.AnthropicAPIKey != "" {
		providers = append(providers, llm.NewAnthropicProvider(cfg.LLM.AnthropicAPIKey, cfg.LLM.DefaultModel))
	}
	if cfg.LLM.OpenAIAPIKey != "" {
		providers = append(providers, llm.NewOpenAIProvider(cfg.LLM.OpenAIAPIKey, cfg.LLM.DefaultModel, cfg.LLM.EmbeddingModel))
	}
	if cfg.LLM.GeminiAPIKey != "" {
		if p, err := llm.NewGeminiProvider(context.Background(), cfg.LLM.GeminiAPIKey, cfg.LLM.DefaultModel); err != nil {
			log.Warn().Err(err).Msg("gemini provider init failed, continuing without it")
		} else {
			providers = append(providers, p)
		}
	}
	gateway := llm.NewGateway(providers, cfg.LLM.Timeout)

	// C3: emotion engine.
	judge := emotion.NewJudge(gateway, logging.Component(log, "emotion"))
	emotionEngine := emotion.NewEngine(emotionStore, judge)

	// Optional ambient sinks, each no-op when unconfigured.
	publisher := events.NewPublisher(cfg.KafkaBrokers, "memoryd.memory-lifecycle")
	defer publisher.Close()

	auditSink, err := audit.NewSink(cfg.ClickHouseDSN)
	if err != nil {
		log.Warn().Err(err).Msg("audit sink init failed, continuing without it")
		auditSink, _ = audit.NewSink("")
	}
	defer auditSink.Close()
	if schemaEnsurer, ok := auditSink.(interface{ EnsureSchema(context.Context) error }); ok {
		if err := schemaEnsurer.EnsureSchema(context.Background()); err != nil {
			log.Warn().Err(err).Msg("audit schema init failed, continuing")
		}
	}

	archiver, err := archive.NewArchiver(context.Background(), cfg.AWSRegion, cfg.TranscriptArchiveBucket)
	if err != nil {
		log.Warn().Err(err).Msg("transcript archiver init failed, continuing without it")
		archiver, _ = archive.NewArchiver(context.Background(), cfg.AWSRegion, "")
	}

	// C4: conversation cleaner.
	cln := cleaner.New(gateway, memStore, logging.Component(log, "cleaner"), cfg.BatchSize).
		WithArchiver(archiver).
		WithPublisher(publisher).
		WithAudit(auditSink).
		WithMetrics(recorder)

	// C5: hybrid retriever.
	retriever := retrieval.NewHybridRetriever(cachedMemStore, cfg.RetrievalCandidates, cfg.RetrievalTopK)

	// C7: scheduler + GC.
	gc := scheduler.NewGC(memStore, logging.Component(log, "gc")).WithMetrics(recorder)
	sched := scheduler.NewScheduler(gc, logging.Component(log, "scheduler"))
	if err := sched.Start(cfg.GCCron); err != nil {
		log.Fatal().Err(err).Msg("start gc scheduler")
	}
	defer sched.Stop()

	// C6: chat orchestrator.
	orchestrator := chat.NewOrchestrator(
		gateway, retriever, instrStore, promptStore, memStore, memStore,
		cln, gc, emotionEngine, cfg.BatchSize, logging.Component(log, "chat"),
	).WithMetrics(recorder)

	server := api.NewServer(cfg, db, userStore, instrStore, promptStore, memStore, gc, orchestrator, logging.Component(log, "api"))

	addr := ":" + envOr("PORT", "8080")
	go func() {
		log.Info().Str("addr", addr).Msg("memoryd listening")
		if err := server.Start(addr); err != nil {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
