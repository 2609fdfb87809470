package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"recipe-verifier/internal/api/handlers/health"
	"recipe-verifier/internal/api/handlers/recipe"
	"recipe-verifier/internal/api/middleware"
	"recipe-verifier/internal/core/cache"
	"recipe-verifier/internal/core/pipeline"
	"recipe-verifier/internal/infrastructure/config"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Deps are the wired services the router exposes over HTTP.
type Deps struct {
	Pipeline  *pipeline.Pipeline
	Generator recipe.Generator
	Store     cache.Store
	Health    *health.Handler
}

// NewRouter assembles the gin engine with the full middleware chain and all
// routes.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(requestid.New())
	r.Use(middleware.Logger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.BodySizeLimit(maxBodyBytes))
	if cfg.DedupWindow > 0 {
		r.Use(middleware.Deduplication(cfg.DedupWindow))
	}
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	r.GET("/health", deps.Health.Health)
	r.GET("/live", deps.Health.Live)
	r.GET("/ready", deps.Health.Ready)

	recipes := recipe.NewHandler(deps.Pipeline, deps.Generator, deps.Store)
	v1 := r.Group("/api/v1")
	{
		v1.POST("/recipes/verify", recipes.HandleVerify)
		v1.POST("/recipes/plan", recipes.HandlePlan)
	}

	return r
}
