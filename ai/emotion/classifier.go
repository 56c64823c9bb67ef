package emotion

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hrygo/echomind/ai/core/llm"
	"github.com/hrygo/echomind/internal/strutil"
)

// Classification outcomes reported to a Recorder.
const (
	OutcomeLLM      = "llm"
	OutcomeFallback = "fallback"
	OutcomeEmpty    = "empty"
)

// Recorder receives one outcome per Classify call.
type Recorder interface {
	RecordClassification(outcome string)
}

// maxInputRunes bounds the text sent to the model.
const maxInputRunes = 4000

// Classifier turns message text into a Classification using an LLM.
// It never returns an error: every failure yields Default().
type Classifier struct {
	llm        llm.Service
	recorder   Recorder
	schema     *llm.ResponseSchema
	structured bool
}

type Option func(*Classifier)

// WithStructuredOutput toggles the json_schema response format.
func WithStructuredOutput(enabled bool) Option {
	return func(c *Classifier) { c.structured = enabled }
}

func WithRecorder(r Recorder) Option {
	return func(c *Classifier) { c.recorder = r }
}

// NewClassifier creates a Classifier. svc may be nil, in which case every call returns Default().
func NewClassifier(svc llm.Service, opts ...Option) *Classifier {
	c := &Classifier{
		llm:        svc,
		structured: true,
		schema: &llm.ResponseSchema{
			Name:   "emotion_classification",
			Schema: llm.GenerateSchema[classificationSchema](),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the emotional reading of text.
func (c *Classifier) Classify(ctx context.Context, text string) (result Classification) {
	text = strings.TrimSpace(text)
	if text == "" {
		c.record(OutcomeEmpty)
		return Default()
	}
	if c.llm == nil {
		c.record(OutcomeFallback)
		return Default()
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("emotion classifier panicked", "panic", r)
			c.record(OutcomeFallback)
			result = Default()
		}
	}()

	raw, err := c.complete(ctx, strutil.TruncateRunes(text, maxInputRunes))
	if err != nil {
		slog.Warn("emotion classification failed, using default", "error", err)
		c.record(OutcomeFallback)
		return Default()
	}

	parsed, ok := Parse(raw)
	if !ok {
		slog.Warn("emotion classification unparseable, using default",
			"content", strutil.Truncate(raw, 200))
		c.record(OutcomeFallback)
		return Default()
	}

	c.record(OutcomeLLM)
	slog.Debug("emotion classified",
		"emotion", parsed.Emotion,
		"intensity", parsed.Intensity,
		"response_mode", parsed.ResponseMode,
	)
	return parsed
}

func (c *Classifier) complete(ctx context.Context, text string) (string, error) {
	messages := []llm.Message{llm.SystemPrompt(systemPrompt), llm.UserMessage(text)}
	if c.structured {
		raw, _, err := c.llm.ChatStructured(ctx, messages, c.schema)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil {
			return "", err
		}
		// Some OpenAI-compatible providers reject json_schema; retry as plain chat.
		slog.Debug("structured classification rejected, retrying plain", "error", err)
	}
	raw, _, err := c.llm.Chat(ctx, messages)
	return raw, err
}

func (c *Classifier) record(outcome string) {
	if c.recorder != nil {
		c.recorder.RecordClassification(outcome)
	}
}
