package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"recipe-verifier/internal/api"
	"recipe-verifier/internal/api/handlers/health"
	"recipe-verifier/internal/core/cache"
	"recipe-verifier/internal/core/generate"
	"recipe-verifier/internal/core/ingredient"
	"recipe-verifier/internal/core/match"
	"recipe-verifier/internal/core/pipeline"
	"recipe-verifier/internal/infrastructure/config"
	"recipe-verifier/internal/pkg/common"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := common.InitLogger(cfg.App.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("starting application",
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.Int("port", cfg.Server.Port))

	db, err := ingredient.LoadDatabase(cfg.Ingredient.DatasetPath)
	if err != nil {
		common.LogFatal("failed to load ingredient database",
			zap.String("path", cfg.Ingredient.DatasetPath),
			zap.Error(err))
	}
	common.LogInfo("ingredient database loaded", zap.Int("entries", db.Len()))

	index := match.NewClient(cfg.Matcher.BaseURL, cfg.Matcher.Timeout)

	pipe, err := pipeline.New(db, index, pipeline.Options{
		MatchThreshold:     cfg.Matcher.Threshold,
		InitialTolerance:   cfg.Pipeline.InitialTolerance,
		FinalTolerance:     cfg.Pipeline.FinalTolerance,
		DiversityThreshold: cfg.Pipeline.DiversityThreshold,
		MaxResults:         cfg.Pipeline.MaxResults,
		Workers:            cfg.Pipeline.Workers,
		Seed:               cfg.Pipeline.Seed,
	})
	if err != nil {
		common.LogFatal("failed to build pipeline", zap.Error(err))
	}

	var store cache.Store
	if cfg.Cache.Enabled {
		store = cache.NewStore(cfg.Cache.RedisAddr, cfg.Cache.MaxSize, cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	}

	var generator *generate.Service
	if cfg.OpenRouter.Enabled {
		client := generate.NewClient(cfg.OpenRouter)
		prompts := generate.NewPromptBuilder(db, cfg.Pipeline.Seed)
		generator = generate.NewService(client, prompts, db, cfg.Generator)
	} else {
		common.LogWarn("candidate generation disabled, plan endpoint will return 503")
	}

	deps := api.Deps{
		Pipeline: pipe,
		Store:    store,
		Health:   health.NewHandler(cfg.App.Version, db),
	}
	if generator != nil {
		deps.Generator = generator
	}
	router := api.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("forced shutdown", zap.Error(err))
	}
	common.LogInfo("Server exited")
}
