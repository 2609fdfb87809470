package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.60, cfg.Matcher.Threshold)
	assert.Equal(t, 0.30, cfg.Pipeline.InitialTolerance)
	assert.Equal(t, 0.15, cfg.Pipeline.FinalTolerance)
	assert.Equal(t, 3, cfg.Pipeline.MaxResults)
	assert.Equal(t, int64(42), cfg.Pipeline.Seed)
	assert.Equal(t, 10, cfg.Generator.Candidates)
	assert.Equal(t, "data/ingredients.json", cfg.Ingredient.DatasetPath)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("MATCHER_THRESHOLD", "0.75")
	t.Setenv("INGREDIENT_DATASET_PATH", "/tmp/other.json")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.75, cfg.Matcher.Threshold)
	assert.Equal(t, "/tmp/other.json", cfg.Ingredient.DatasetPath)
}

func TestValidateConfigRejectsBadThreshold(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	cfg.Matcher.Threshold = 1.5
	assert.Error(t, validateConfig(cfg))

	cfg.Matcher.Threshold = 0.6
	cfg.Pipeline.InitialTolerance = 0.10
	assert.Error(t, validateConfig(cfg))
}
