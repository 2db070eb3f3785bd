package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BerylCAtieno/synapse/internal/a2a"
	"github.com/BerylCAtieno/synapse/internal/api"
	"github.com/BerylCAtieno/synapse/internal/auth"
	"github.com/BerylCAtieno/synapse/internal/config"
	"github.com/BerylCAtieno/synapse/internal/llm"
	"github.com/BerylCAtieno/synapse/internal/logger"
	"github.com/BerylCAtieno/synapse/internal/services"
	"github.com/BerylCAtieno/synapse/internal/store"
	"github.com/BerylCAtieno/synapse/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("Failed to open database", "error", err)
	}

	metrics := telemetry.New()

	openAI := llm.NewOpenAIClient(log, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.CompletionTimeout)
	gemini := llm.NewGeminiClient(log, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.CompletionTimeout)
	defer gemini.Close()

	registry, err := llm.NewRegistry(cfg.DefaultModel,
		llm.WithObserver(openAI, metrics),
		llm.WithObserver(gemini, metrics),
	)
	if err != nil {
		log.Fatal("Failed to build model registry", "error", err)
	}
	if cfg.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY is not set; OpenAI simulations will fail")
	}
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY is not set; Gemini simulations will fail")
	}
	if cfg.JWTSecret == "" {
		log.Warn("AUTH_JWT_SECRET is not set; bearer tokens will be rejected")
	}

	campaignRepo := store.NewCampaignRepo(db, log)
	personaRepo := store.NewPersonaRepo(db, log)
	simulationRepo := store.NewSimulationRepo(db, log)

	catalog := services.NewCatalogService(log, campaignRepo, personaRepo)
	simulations := services.NewSimulationService(log, campaignRepo, personaRepo, simulationRepo,
		registry, metrics, cfg.SimulationHistoryLimit)

	agent := a2a.NewHandler(log, simulations, cfg.PublicURL)

	router := api.NewRouter(api.RouterConfig{
		Log:               log.With("component", "http"),
		CORSOrigins:       cfg.CORSAllowOrigins,
		AuthMiddleware:    auth.NewMiddleware(log, auth.NewVerifier(cfg.JWTSecret)),
		Metrics:           metrics,
		SimulationHandler: api.NewSimulationHandler(log, simulations),
		CampaignHandler:   api.NewCampaignHandler(log, catalog),
		PersonaHandler:    api.NewPersonaHandler(log, catalog),
		DemoHandler:       api.NewDemoHandler(),
		AgentRoutes:       agent.Routes,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Synapse starting", "port", cfg.Port, "env", cfg.AppEnv, "default_model", registry.DefaultModel())
		log.Info("Agent card available", "url", cfg.PublicURL+"/.well-known/agent.json")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
