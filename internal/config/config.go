// Package config loads and validates the search service configuration.
// Values come from an optional JSON file merged over defaults, with
// environment variables taking precedence for secrets and connection URLs.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// ConfigurationError reports an invalid tunable detected at startup.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// LexicalWeights are the multipliers applied to each lexical score component.
type LexicalWeights struct {
	Coverage    float64 `json:"coverage" validate:"gte=0"`
	MustIDF     float64 `json:"must_idf" validate:"gte=0"`
	NiceIDF     float64 `json:"nice_idf" validate:"gte=0"`
	DomainBonus float64 `json:"domain_bonus" validate:"gte=0"`
	FTSRank     float64 `json:"fts_rank" validate:"gte=0"`
}

// SearchConfig holds the pipeline tunables. All values are read once at
// startup and treated as immutable afterwards.
type SearchConfig struct {
	// SeniorityWindow is the allowed ladder distance from the requested
	// seniority during gating. 0 means exact match only.
	SeniorityWindow int `json:"seniority_window" validate:"gte=0"`
	// FanInMultiplier and FanInMax bound the lexical retrieval width.
	FanInMultiplier int `json:"fanin_multiplier" validate:"gte=1"`
	FanInMax        int `json:"fanin_max" validate:"gte=1"`
	// Weights blend the lexical score components.
	Weights LexicalWeights `json:"weights"`
	// RoleSynonyms maps a canonical role to additional accepted role tags.
	RoleSynonyms map[string][]string `json:"role_synonyms,omitempty"`
	// VerdictTimeoutSeconds bounds each LLM verdict call. One retry is
	// attempted after VerdictRetryDelayMS before falling back to lexical
	// ordering.
	VerdictTimeoutSeconds int `json:"verdict_timeout_seconds" validate:"gte=1"`
	VerdictRetryDelayMS   int `json:"verdict_retry_delay_ms" validate:"gte=0"`
	// MaxConcurrentSeats bounds project-level seat parallelism. 1 means
	// sequential execution.
	MaxConcurrentSeats int `json:"max_concurrent_seats" validate:"gte=1"`
	// EvidenceMaxChars caps the per-candidate evidence block in verdict
	// prompts.
	EvidenceMaxChars int `json:"evidence_max_chars" validate:"gte=200"`
	// DefaultTopK is used when a request does not specify top_k.
	DefaultTopK int `json:"default_top_k" validate:"gte=1"`
}

// Config is the top-level service configuration.
type Config struct {
	DatabaseURL string       `json:"database_url,omitempty"`
	APIKey      string       `json:"api_key,omitempty"`
	RunsDir     string       `json:"runs_dir,omitempty"`
	Port        int          `json:"port,omitempty" validate:"omitempty,gte=1,lte=65535"`
	Search      SearchConfig `json:"search"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		RunsDir: "runs",
		Port:    8080,
		Search: SearchConfig{
			SeniorityWindow:       0,
			FanInMultiplier:       10,
			FanInMax:              250,
			Weights:               DefaultLexicalWeights(),
			VerdictTimeoutSeconds: 60,
			VerdictRetryDelayMS:   500,
			MaxConcurrentSeats:    1,
			EvidenceMaxChars:      1200,
			DefaultTopK:           5,
		},
	}
}

// DefaultLexicalWeights returns the default lexical score blend.
func DefaultLexicalWeights() LexicalWeights {
	return LexicalWeights{
		Coverage:    2.0,
		MustIDF:     1.0,
		NiceIDF:     0.3,
		DomainBonus: 0.5,
		FTSRank:     0.4,
	}
}

// LoadConfig reads the JSON config file at path (if it exists), merges it
// over defaults, applies environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.mergeDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("CV_SEARCH_RUNS_DIR"); v != "" {
		c.RunsDir = v
	}
}

// mergeDefaults fills zero values left by a partial config file.
func (c *Config) mergeDefaults() {
	def := DefaultConfig()
	if c.RunsDir == "" {
		c.RunsDir = def.RunsDir
	}
	if c.Port == 0 {
		c.Port = def.Port
	}
	s, ds := &c.Search, def.Search
	if s.FanInMultiplier == 0 {
		s.FanInMultiplier = ds.FanInMultiplier
	}
	if s.FanInMax == 0 {
		s.FanInMax = ds.FanInMax
	}
	if s.Weights == (LexicalWeights{}) {
		s.Weights = ds.Weights
	}
	if s.VerdictTimeoutSeconds == 0 {
		s.VerdictTimeoutSeconds = ds.VerdictTimeoutSeconds
	}
	if s.MaxConcurrentSeats == 0 {
		s.MaxConcurrentSeats = ds.MaxConcurrentSeats
	}
	if s.EvidenceMaxChars == 0 {
		s.EvidenceMaxChars = ds.EvidenceMaxChars
	}
	if s.DefaultTopK == 0 {
		s.DefaultTopK = ds.DefaultTopK
	}
}

// Validate checks all tunables, returning a ConfigurationError for the
// first violation found.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			fe := invalid[0]
			return &ConfigurationError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed %q check (value %v)", fe.Tag(), fe.Value()),
			}
		}
		return &ConfigurationError{Field: "config", Message: err.Error()}
	}
	if c.Search.DefaultTopK > c.Search.FanInMax {
		return &ConfigurationError{
			Field:   "search.default_top_k",
			Message: fmt.Sprintf("must not exceed fanin_max (%d)", c.Search.FanInMax),
		}
	}
	return nil
}
