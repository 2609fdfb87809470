package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Generator   GeneratorConfig  `mapstructure:"generator"`
	Matcher     MatcherConfig    `mapstructure:"matcher"`
	Ingredient  IngredientConfig `mapstructure:"ingredient"`
	Pipeline    PipelineConfig   `mapstructure:"pipeline"`
	Cache       CacheConfig      `mapstructure:"cache"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig holds application metadata.
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// OpenRouterConfig holds OpenRouter settings for the candidate generator.
type OpenRouterConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// GeneratorConfig holds candidate generation settings.
type GeneratorConfig struct {
	Candidates int           `mapstructure:"candidates"`
	Workers    int           `mapstructure:"workers"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// MatcherConfig holds the nearest-neighbour name index settings.
type MatcherConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Threshold float64       `mapstructure:"threshold"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// IngredientConfig holds the canonical ingredient database settings.
type IngredientConfig struct {
	DatasetPath string `mapstructure:"dataset_path"`
}

// PipelineConfig holds verification pipeline tolerances and limits.
type PipelineConfig struct {
	InitialTolerance   float64 `mapstructure:"initial_tolerance"`
	FinalTolerance     float64 `mapstructure:"final_tolerance"`
	DiversityThreshold float64 `mapstructure:"diversity_threshold"`
	MaxResults         int     `mapstructure:"max_results"`
	Workers            int     `mapstructure:"workers"`
	Seed               int64   `mapstructure:"seed"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RedisAddr       string        `mapstructure:"redis_addr"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig loads configuration from .env and the environment.
func LoadConfig() (*Config, error) {
	// A missing .env is fine, the environment may carry everything.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	viper.BindEnv("openrouter.max_tokens", "MODEL_MAX_TOKENS")
	viper.BindEnv("matcher.base_url", "MATCHER_BASE_URL")
	viper.BindEnv("matcher.threshold", "MATCHER_THRESHOLD")
	viper.BindEnv("ingredient.dataset_path", "INGREDIENT_DATASET_PATH")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.redis_addr", "CACHE_REDIS_ADDR")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Logger is not initialised yet, so plain printing.
	fmt.Println("Loading configuration", "openrouter_api_key:", maskAPIKey(viper.GetString("openrouter.api_key")), "matcher_base_url:", viper.GetString("matcher.base_url"))

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey masks an API key, keeping four characters on each end.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func setDefaults() {
	// Application
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "recipe-verifier")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// OpenRouter
	viper.SetDefault("openrouter.enabled", false)
	viper.SetDefault("openrouter.model", "openai/gpt-3.5-turbo")
	viper.SetDefault("openrouter.max_tokens", 2000)
	viper.SetDefault("openrouter.timeout", "60s")

	// Generator
	viper.SetDefault("generator.candidates", 10)
	viper.SetDefault("generator.workers", 6)
	viper.SetDefault("generator.max_retries", 2)
	viper.SetDefault("generator.retry_delay", "1s")

	// Matcher
	viper.SetDefault("matcher.base_url", "http://localhost:9000")
	viper.SetDefault("matcher.threshold", 0.60)
	viper.SetDefault("matcher.timeout", "10s")

	// Ingredient database
	viper.SetDefault("ingredient.dataset_path", "data/ingredients.json")

	// Pipeline
	viper.SetDefault("pipeline.initial_tolerance", 0.30)
	viper.SetDefault("pipeline.final_tolerance", 0.15)
	viper.SetDefault("pipeline.diversity_threshold", 0.65)
	viper.SetDefault("pipeline.max_results", 3)
	viper.SetDefault("pipeline.workers", 4)
	viper.SetDefault("pipeline.seed", 42)

	// Cache
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_size", 1000)
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.cleanup_interval", "10m")
	viper.SetDefault("cache.redis_addr", "")

	// Rate limit
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	// Request deduplication window
	viper.SetDefault("dedup_window", "1s")
}

func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Matcher.Threshold <= 0 || config.Matcher.Threshold > 1 {
		return fmt.Errorf("invalid matcher threshold")
	}

	if config.Pipeline.InitialTolerance <= config.Pipeline.FinalTolerance {
		return fmt.Errorf("initial tolerance must be wider than final tolerance")
	}
	if config.Pipeline.MaxResults <= 0 {
		return fmt.Errorf("invalid pipeline max results")
	}
	if config.Pipeline.Workers <= 0 {
		return fmt.Errorf("invalid pipeline workers")
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if config.Generator.Workers <= 0 {
		return fmt.Errorf("invalid generator workers")
	}
	if config.Generator.Candidates <= 0 {
		return fmt.Errorf("invalid generator candidate count")
	}

	return nil
}
