package detection

// Config contains tunable settings for duplicate detection
type Config struct {
	ExactDateToleranceDays         int     `json:"exact_date_tolerance_days"`
	FuzzyDateToleranceDays         int     `json:"fuzzy_date_tolerance_days"`
	AmountTolerancePercent         float64 `json:"amount_tolerance_percent"`
	DescriptionSimilarityThreshold float64 `json:"description_similarity_threshold"`
	ExactMatchThreshold            float64 `json:"exact_match_threshold"`
	FuzzyMatchThreshold            float64 `json:"fuzzy_match_threshold"`
	CompositeMatchThreshold        float64 `json:"composite_match_threshold"`
	AutoSkipThreshold              float64 `json:"auto_skip_threshold"` // consumed by the ingestion pipeline, not the detector
}

// DefaultConfig returns the default detection settings
func DefaultConfig() Config {
	return Config{
		ExactDateToleranceDays:         0,
		FuzzyDateToleranceDays:         2,
		AmountTolerancePercent:         0.01,
		DescriptionSimilarityThreshold: 0.8,
		ExactMatchThreshold:            1.0,
		FuzzyMatchThreshold:            0.85,
		CompositeMatchThreshold:        0.85,
		AutoSkipThreshold:              0.98,
	}
}

// ConfigFromMap builds a Config from a loosely-typed settings map, starting
// from defaults. Known keys override their field; unknown keys are ignored
// so callers can pass a superset of settings.
func ConfigFromMap(m map[string]any) Config {
	cfg := DefaultConfig()

	if v, ok := asInt(m["exact_date_tolerance_days"]); ok {
		cfg.ExactDateToleranceDays = v
	}
	if v, ok := asInt(m["fuzzy_date_tolerance_days"]); ok {
		cfg.FuzzyDateToleranceDays = v
	}
	if v, ok := asFloat(m["amount_tolerance_percent"]); ok {
		cfg.AmountTolerancePercent = v
	}
	if v, ok := asFloat(m["description_similarity_threshold"]); ok {
		cfg.DescriptionSimilarityThreshold = v
	}
	if v, ok := asFloat(m["exact_match_threshold"]); ok {
		cfg.ExactMatchThreshold = v
	}
	if v, ok := asFloat(m["fuzzy_match_threshold"]); ok {
		cfg.FuzzyMatchThreshold = v
	}
	if v, ok := asFloat(m["composite_match_threshold"]); ok {
		cfg.CompositeMatchThreshold = v
	}
	if v, ok := asFloat(m["auto_skip_threshold"]); ok {
		cfg.AutoSkipThreshold = v
	}

	return cfg
}

// ToMap converts the config to a settings map
func (c Config) ToMap() map[string]any {
	return map[string]any{
		"exact_date_tolerance_days":        c.ExactDateToleranceDays,
		"fuzzy_date_tolerance_days":        c.FuzzyDateToleranceDays,
		"amount_tolerance_percent":         c.AmountTolerancePercent,
		"description_similarity_threshold": c.DescriptionSimilarityThreshold,
		"exact_match_threshold":            c.ExactMatchThreshold,
		"fuzzy_match_threshold":            c.FuzzyMatchThreshold,
		"composite_match_threshold":        c.CompositeMatchThreshold,
		"auto_skip_threshold":              c.AutoSkipThreshold,
	}
}

// asInt coerces JSON-decoded numerics to int
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// asFloat coerces JSON-decoded numerics to float64
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
