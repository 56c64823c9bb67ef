package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// LLMCallStats represents token usage and timing for a single LLM call.
type LLMCallStats struct {
	PromptTokens     int   `json:"prompt_tokens"`
	CompletionTokens int   `json:"completion_tokens"`
	TotalTokens      int   `json:"total_tokens"`
	CacheReadTokens  int   `json:"cache_read_tokens,omitempty"`
	TotalDurationMs  int64 `json:"total_duration_ms"`
}

// ResponseSchema constrains a completion to a JSON document.
type ResponseSchema struct {
	Name   string
	Schema map[string]any
}

// Service is the LLM service interface.
type Service interface {
	// Chat performs synchronous chat. Returns content, statistics, and error.
	Chat(ctx context.Context, messages []Message) (string, *LLMCallStats, error)

	// ChatStructured is Chat with a strict json_schema response format.
	// Callers must still parse defensively; some providers ignore the format.
	ChatStructured(ctx context.Context, messages []Message, schema *ResponseSchema) (string, *LLMCallStats, error)

	// Warmup sends a lightweight ping request to establish and warm up the LLM connection.
	Warmup(ctx context.Context)
}

// Config represents LLM service configuration.
type Config struct {
	Provider    string // deepseek, openai, siliconflow, dashscope, openrouter, ollama
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 1024
	Temperature float32 // default: 0.7
	Timeout     int     // Request timeout in seconds (default: 60)
	RPS         float64 // requests per second, 0 disables limiting
}

var providerBaseURLs = map[string]string{
	"deepseek":    "https://api.deepseek.com",
	"openai":      "https://api.openai.com/v1",
	"siliconflow": "https://api.siliconflow.cn/v1",
	"dashscope":   "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"openrouter":  "https://openrouter.ai/api/v1",
	"ollama":      "http://localhost:11434/v1",
}

type service struct {
	client      *openai.Client
	limiter     *rate.Limiter
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// NewService creates a new LLM Service.
func NewService(cfg *Config) (Service, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		defaultURL, ok := providerBaseURLs[cfg.Provider]
		if !ok {
			return nil, fmt.Errorf("unsupported llm provider %q without base url", cfg.Provider)
		}
		baseURL = defaultURL
	}
	if _, known := providerBaseURLs[cfg.Provider]; !known {
		slog.Info("Using generic OpenAI-compatible provider", "provider", cfg.Provider)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = baseURL
	clientConfig.HTTPClient = newHTTPClient()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &service{
		client:      openai.NewClientWithConfig(clientConfig),
		limiter:     limiter,
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     time.Duration(timeout) * time.Second,
	}, nil
}

func (s *service) Chat(ctx context.Context, messages []Message) (string, *LLMCallStats, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(messages),
	}
	return s.complete(ctx, req)
}

func (s *service) ChatStructured(ctx context.Context, messages []Message, schema *ResponseSchema) (string, *LLMCallStats, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: 0.2,
		Messages:    convertMessages(messages),
	}
	if schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schema.Name,
				Strict: true,
				Schema: Schema(schema.Schema),
			},
		}
	}
	return s.complete(ctx, req)
}

func (s *service) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, *LLMCallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", nil, fmt.Errorf("llm rate limit wait: %w", err)
		}
	}

	slog.Debug("LLM: Chat request",
		"model", s.model,
		"messages_count", len(req.Messages),
		"structured", req.ResponseFormat != nil,
	)

	startTime := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("LLM: Chat request failed", "model", s.model, "error", err)
		return "", nil, fmt.Errorf("LLM chat failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("LLM: Empty response from LLM")
		return "", nil, fmt.Errorf("empty response from LLM")
	}

	totalDuration := time.Since(startTime)
	stats := &LLMCallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}
	if resp.Usage.PromptTokensDetails != nil && resp.Usage.PromptTokensDetails.CachedTokens > 0 {
		stats.CacheReadTokens = resp.Usage.PromptTokensDetails.CachedTokens
	}

	slog.Debug("LLM: Chat response received",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", stats.TotalTokens,
		"duration_ms", totalDuration.Milliseconds(),
	)
	return resp.Choices[0].Message.Content, stats, nil
}

func (s *service) Warmup(ctx context.Context) {
	warmupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	startTime := time.Now()
	_, err := s.client.CreateChatCompletion(warmupCtx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: 1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hi"},
		},
	})
	duration := time.Since(startTime)

	if err != nil {
		slog.Warn("LLM: warmup ping failed (service will still work, first request may be slower)",
			"provider", s.provider,
			"model", s.model,
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		return
	}
	slog.Info("LLM: connection warmed up",
		"provider", s.provider,
		"model", s.model,
		"duration_ms", duration.Milliseconds(),
	)
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		llmMessages[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return llmMessages
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 90 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// SystemPrompt builds a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage builds an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// FormatMessages prepends the system prompt and appends the user turn to history.
func FormatMessages(systemPrompt string, userContent string, history []Message) []Message {
	messages := []Message{}
	if systemPrompt != "" {
		messages = append(messages, SystemPrompt(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, UserMessage(userContent))
	return messages
}
