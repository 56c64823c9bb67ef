package ai

import (
	"errors"
	"time"

	"github.com/hrygo/echomind/ai/core/llm"
	"github.com/hrygo/echomind/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	LLM        llm.Config
	Classifier ClassifierConfig
	Insight    CapabilityConfig
	Ritual     CapabilityConfig
	Enabled    bool
}

// ClassifierConfig represents emotion classification LLM configuration.
// Classification runs on every user turn with a low temperature and few tokens.
type ClassifierConfig struct {
	LLM        llm.Config
	Structured bool
}

// CapabilityConfig points at a remote generator. An empty endpoint selects the built-in one.
type CapabilityConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Remote reports whether a remote endpoint is configured.
func (c CapabilityConfig) Remote() bool {
	return c.Endpoint != ""
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	timeout := time.Duration(p.LLMTimeout) * time.Second
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
		Insight: CapabilityConfig{
			Endpoint: p.InsightEndpoint,
			APIKey:   p.CapabilityKey,
			Timeout:  timeout,
		},
		Ritual: CapabilityConfig{
			Endpoint: p.RitualEndpoint,
			APIKey:   p.CapabilityKey,
			Timeout:  timeout,
		},
	}

	if !cfg.Enabled {
		return cfg
	}

	cfg.LLM = llm.Config{
		Provider:    p.LLMProvider,
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   1024,
		Temperature: 0.7,
		Timeout:     p.LLMTimeout,
		RPS:         p.LLMRPS,
	}

	classifierModel := p.ClassifierModel
	if classifierModel == "" {
		classifierModel = p.LLMModel
	}
	cfg.Classifier = ClassifierConfig{
		LLM: llm.Config{
			Provider:    p.LLMProvider,
			Model:       classifierModel,
			APIKey:      p.LLMAPIKey,
			BaseURL:     p.LLMBaseURL,
			MaxTokens:   256,
			Temperature: 0.1,
			Timeout:     p.LLMTimeout,
			RPS:         p.LLMRPS,
		},
		Structured: p.ClassifierStructured,
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}

	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	if c.LLM.Model == "" || c.Classifier.LLM.Model == "" {
		return errors.New("LLM model is required")
	}

	return nil
}
