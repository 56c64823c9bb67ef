package emotion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/echomind/ai/core/llm"
)

// MockLLMService is a mock implementation of llm.Service for testing.
type MockLLMService struct {
	ChatFunc           func(ctx context.Context, messages []llm.Message) (string, *llm.LLMCallStats, error)
	ChatStructuredFunc func(ctx context.Context, messages []llm.Message, schema *llm.ResponseSchema) (string, *llm.LLMCallStats, error)
	Calls              int
	StructuredCalls    int
	LastMessages       []llm.Message
}

func (m *MockLLMService) Chat(ctx context.Context, messages []llm.Message) (string, *llm.LLMCallStats, error) {
	m.Calls++
	m.LastMessages = messages
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages)
	}
	return "", nil, errors.New("not implemented")
}

func (m *MockLLMService) ChatStructured(ctx context.Context, messages []llm.Message, schema *llm.ResponseSchema) (string, *llm.LLMCallStats, error) {
	m.StructuredCalls++
	m.LastMessages = messages
	if m.ChatStructuredFunc != nil {
		return m.ChatStructuredFunc(ctx, messages, schema)
	}
	return "", nil, errors.New("structured output unsupported")
}

func (m *MockLLMService) Warmup(ctx context.Context) {}

type recorderStub struct {
	outcomes []string
}

func (r *recorderStub) RecordClassification(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func chatReturning(content string) func(context.Context, []llm.Message) (string, *llm.LLMCallStats, error) {
	return func(context.Context, []llm.Message) (string, *llm.LLMCallStats, error) {
		return content, &llm.LLMCallStats{}, nil
	}
}

func TestClassify_EmptyInputSkipsLLM(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		mock := &MockLLMService{ChatFunc: chatReturning(`{"emotion":"joy"}`)}
		rec := &recorderStub{}
		c := NewClassifier(mock, WithRecorder(rec))

		got := c.Classify(context.Background(), text)
		assert.Equal(t, Default(), got)
		assert.Nil(t, got.Trigger)
		assert.Zero(t, mock.Calls+mock.StructuredCalls)
		assert.Equal(t, []string{OutcomeEmpty}, rec.outcomes)
	}
}

func TestClassify_EmbeddedJSONMergesOverDefault(t *testing.T) {
	mock := &MockLLMService{ChatFunc: chatReturning(`blah {"emotion":"joy"} blah`)}
	c := NewClassifier(mock, WithStructuredOutput(false))

	got := c.Classify(context.Background(), "I got the job!")

	want := Default()
	want.Emotion = KindJoy
	assert.Equal(t, want, got)
	assert.Equal(t, 1, mock.Calls)
	assert.Zero(t, mock.StructuredCalls)
}

func TestClassify_StructuredFirst(t *testing.T) {
	var gotSchema *llm.ResponseSchema
	mock := &MockLLMService{
		ChatStructuredFunc: func(_ context.Context, _ []llm.Message, schema *llm.ResponseSchema) (string, *llm.LLMCallStats, error) {
			gotSchema = schema
			return `{"emotion":"burnout","intensity":0.8,"polarity":"negative","responseMode":"support","trigger":"overtime"}`, nil, nil
		},
	}
	rec := &recorderStub{}
	c := NewClassifier(mock, WithRecorder(rec))

	got := c.Classify(context.Background(), "I can't keep working these hours")
	assert.Equal(t, KindBurnout, got.Emotion)
	assert.Equal(t, 0.8, got.Intensity)
	assert.Equal(t, PolarityNegative, got.Polarity)
	assert.Equal(t, ModeSupport, got.ResponseMode)
	require.NotNil(t, got.Trigger)
	assert.Equal(t, "overtime", *got.Trigger)
	assert.Zero(t, mock.Calls)
	require.NotNil(t, gotSchema)
	assert.Equal(t, "emotion_classification", gotSchema.Name)
	assert.Equal(t, []string{OutcomeLLM}, rec.outcomes)

	require.Len(t, mock.LastMessages, 2)
	assert.Equal(t, "system", mock.LastMessages[0].Role)
	assert.Contains(t, mock.LastMessages[0].Content, responseModePolicy)
}

func TestClassify_StructuredRejectedFallsBackToChat(t *testing.T) {
	mock := &MockLLMService{ChatFunc: chatReturning(`{"emotion":"anxiety","intensity":0.9,"polarity":"negative","responseMode":"listener"}`)}
	c := NewClassifier(mock)

	got := c.Classify(context.Background(), "everything is too much")
	assert.Equal(t, KindAnxiety, got.Emotion)
	assert.Equal(t, ModeListener, got.ResponseMode)
	assert.Equal(t, 1, mock.StructuredCalls)
	assert.Equal(t, 1, mock.Calls)
}

func TestClassify_FailuresReturnDefault(t *testing.T) {
	tests := []struct {
		name string
		chat func(context.Context, []llm.Message) (string, *llm.LLMCallStats, error)
	}{
		{"transport error", func(context.Context, []llm.Message) (string, *llm.LLMCallStats, error) {
			return "", nil, errors.New("connection refused")
		}},
		{"no json", chatReturning("I think the user is happy")},
		{"broken json", chatReturning(`{"emotion": "joy"`)},
		{"panic", func(context.Context, []llm.Message) (string, *llm.LLMCallStats, error) {
			panic("boom")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorderStub{}
			c := NewClassifier(&MockLLMService{ChatFunc: tt.chat}, WithStructuredOutput(false), WithRecorder(rec))
			assert.Equal(t, Default(), c.Classify(context.Background(), "hello"))
			assert.Equal(t, []string{OutcomeFallback}, rec.outcomes)
		})
	}
}

func TestClassify_NilService(t *testing.T) {
	c := NewClassifier(nil)
	assert.Equal(t, Default(), c.Classify(context.Background(), "hello"))
}

func TestSystemPrompt_ListsEnumerations(t *testing.T) {
	for _, k := range Kinds {
		assert.Contains(t, systemPrompt, string(k))
	}
	for _, m := range ResponseModes {
		assert.Contains(t, systemPrompt, string(m)+":")
	}
	assert.Contains(t, systemPrompt, "support: sadness, shame, burnout, grief, loneliness")
	assert.Contains(t, systemPrompt, "listener: high-intensity stress, anxiety, overwhelm")
}
