package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0, cfg.ExactDateToleranceDays)
	assert.Equal(t, 2, cfg.FuzzyDateToleranceDays)
	assert.Equal(t, 0.01, cfg.AmountTolerancePercent)
	assert.Equal(t, 0.8, cfg.DescriptionSimilarityThreshold)
	assert.Equal(t, 1.0, cfg.ExactMatchThreshold)
	assert.Equal(t, 0.85, cfg.FuzzyMatchThreshold)
	assert.Equal(t, 0.85, cfg.CompositeMatchThreshold)
	assert.Equal(t, 0.98, cfg.AutoSkipThreshold)
}

func TestConfigFromMap(t *testing.T) {
	cfg := ConfigFromMap(map[string]any{
		"fuzzy_date_tolerance_days": 5,
		"fuzzy_match_threshold":     0.9,
		"auto_skip_threshold":       0.95,
	})

	assert.Equal(t, 5, cfg.FuzzyDateToleranceDays)
	assert.Equal(t, 0.9, cfg.FuzzyMatchThreshold)
	assert.Equal(t, 0.95, cfg.AutoSkipThreshold)

	// untouched keys keep defaults
	assert.Equal(t, 0.01, cfg.AmountTolerancePercent)
	assert.Equal(t, 1.0, cfg.ExactMatchThreshold)
}

func TestConfigFromMapJSONNumerics(t *testing.T) {
	// json.Unmarshal into map[string]any decodes every number as float64
	cfg := ConfigFromMap(map[string]any{
		"exact_date_tolerance_days": float64(1),
		"fuzzy_date_tolerance_days": int64(4),
		"exact_match_threshold":     int(1),
	})

	assert.Equal(t, 1, cfg.ExactDateToleranceDays)
	assert.Equal(t, 4, cfg.FuzzyDateToleranceDays)
	assert.Equal(t, 1.0, cfg.ExactMatchThreshold)
}

func TestConfigFromMapIgnoresUnknownKeys(t *testing.T) {
	cfg := ConfigFromMap(map[string]any{
		"exact_match_threshold": 0.99,
		"not_a_setting":         true,
		"another":               "value",
	})

	assert.Equal(t, 0.99, cfg.ExactMatchThreshold)
	assert.Equal(t, DefaultConfig().FuzzyMatchThreshold, cfg.FuzzyMatchThreshold)
}

func TestConfigToMapRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FuzzyDateToleranceDays = 3
	cfg.CompositeMatchThreshold = 0.75

	assert.Equal(t, cfg, ConfigFromMap(cfg.ToMap()))
}
