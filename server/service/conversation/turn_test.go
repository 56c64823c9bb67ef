package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/echomind/ai/core/llm"
	"github.com/hrygo/echomind/ai/emotion"
	"github.com/hrygo/echomind/store"
)

// MockClassifier is a mock implementation of Classifier for testing.
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, text string) emotion.Classification
	Calls        int
}

func (m *MockClassifier) Classify(ctx context.Context, text string) emotion.Classification {
	m.Calls++
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text)
	}
	return emotion.Default()
}

// MockResponder is a mock implementation of Responder for testing.
type MockResponder struct {
	ReplyFunc func(ctx context.Context, req ReplyRequest) (string, error)
	Requests  []ReplyRequest
}

func (m *MockResponder) Reply(ctx context.Context, req ReplyRequest) (string, error) {
	m.Requests = append(m.Requests, req)
	return m.ReplyFunc(ctx, req)
}

func sadness(context.Context, string) emotion.Classification {
	return emotion.Classification{Emotion: emotion.KindSadness, Polarity: emotion.PolarityNegative, ResponseMode: emotion.ModeSupport, Intensity: 0.7}
}

func TestSend_FullTurn(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	responder := &MockResponder{ReplyFunc: func(context.Context, ReplyRequest) (string, error) {
		return "That sounds heavy. I'm here.", nil
	}}
	session := NewSession(1, s,
		WithClock(fixedClock()),
		WithClassifier(&MockClassifier{ClassifyFunc: sadness}),
		WithResponder(responder),
	)
	conv, err := session.CreateConversation(ctx, nil)
	require.NoError(t, err)

	turn, err := session.Send(ctx, "I miss my old team")
	require.NoError(t, err)
	require.NotNil(t, turn.User)
	require.NotNil(t, turn.Assistant)
	assert.Equal(t, emotion.KindSadness, turn.Emotion.Emotion)
	assert.Equal(t, "sadness", *turn.User.Emotion)
	assert.Nil(t, turn.Assistant.Emotion)

	require.Len(t, responder.Requests, 1)
	req := responder.Requests[0]
	assert.Equal(t, emotion.ModeSupport, req.Mode)
	assert.Equal(t, store.DefaultPersona, req.Persona)
	require.Len(t, req.History, 1)
	assert.Equal(t, "I miss my old team", req.History[0].Content)

	stored, err := s.ListMessages(ctx, &store.FindMessage{ConversationID: &conv.ID})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, store.MessageRoleUser, stored[0].Role)
	assert.Equal(t, store.MessageRoleAssistant, stored[1].Role)

	active, _ := session.Active()
	assert.Equal(t, "I miss my old team", *active.Title)
}

func TestSend_NoActiveConversation(t *testing.T) {
	classifier := &MockClassifier{}
	session := NewSession(1, newTestStore(t), WithClassifier(classifier))
	turn, err := session.Send(context.Background(), "hello?")
	assert.NoError(t, err)
	assert.Nil(t, turn)
	assert.Zero(t, classifier.Calls)
}

func TestSend_TaggingDisabled(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	classifier := &MockClassifier{ClassifyFunc: sadness}
	session := NewSession(1, s, WithClock(fixedClock()), WithClassifier(classifier))

	setting, err := session.Settings(ctx)
	require.NoError(t, err)
	setting.EmotionTagging = false
	_, err = session.UpdateSettings(ctx, setting)
	require.NoError(t, err)

	_, err = session.CreateConversation(ctx, nil)
	require.NoError(t, err)
	turn, err := session.Send(ctx, "just a note")
	require.NoError(t, err)
	assert.Zero(t, classifier.Calls)
	assert.Nil(t, turn.User.Emotion)
	assert.Nil(t, turn.Assistant)
}

func TestSend_StaleClassificationDropped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	session := NewSession(1, s, WithClock(fixedClock()))

	a, err := session.CreateConversation(ctx, nil)
	require.NoError(t, err)

	var b *store.Conversation
	session.classifier = &MockClassifier{ClassifyFunc: func(ctx context.Context, text string) emotion.Classification {
		// The user opens another conversation while classification is in flight.
		var err error
		b, err = session.CreateConversation(ctx, nil)
		require.NoError(t, err)
		return sadness(ctx, text)
	}}

	turn, err := session.Send(ctx, "written in A")
	assert.ErrorIs(t, err, ErrStaleConversation)
	assert.Nil(t, turn)

	for _, id := range []int32{a.ID, b.ID} {
		msgs, err := s.ListMessages(ctx, &store.FindMessage{ConversationID: &id})
		require.NoError(t, err)
		assert.Empty(t, msgs)
	}
	_, messages := session.Active()
	assert.Empty(t, messages)
}

func TestSend_StaleReplyDropped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	session := NewSession(1, s, WithClock(fixedClock()), WithClassifier(&MockClassifier{}))
	a, err := session.CreateConversation(ctx, nil)
	require.NoError(t, err)

	session.responder = &MockResponder{ReplyFunc: func(ctx context.Context, _ ReplyRequest) (string, error) {
		_, err := session.CreateConversation(ctx, nil)
		require.NoError(t, err)
		return "late", nil
	}}

	turn, err := session.Send(ctx, "hello")
	assert.ErrorIs(t, err, ErrStaleConversation)
	require.NotNil(t, turn)
	assert.NotNil(t, turn.User)
	assert.Nil(t, turn.Assistant)

	msgs, err := s.ListMessages(ctx, &store.FindMessage{ConversationID: &a.ID})
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestSend_ReplyFailureKeepsUserMessage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	session := NewSession(1, s, WithClock(fixedClock()),
		WithClassifier(&MockClassifier{}),
		WithResponder(&MockResponder{ReplyFunc: func(context.Context, ReplyRequest) (string, error) {
			return "", errors.New("upstream timeout")
		}}),
	)
	conv, err := session.CreateConversation(ctx, nil)
	require.NoError(t, err)

	turn, err := session.Send(ctx, "are you there?")
	assert.Error(t, err)
	require.NotNil(t, turn)
	assert.NotNil(t, turn.User)

	msgs, err := s.ListMessages(ctx, &store.FindMessage{ConversationID: &conv.ID})
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

// MockLLMService is a mock implementation of llm.Service for testing.
type MockLLMService struct {
	ChatFunc     func(ctx context.Context, messages []llm.Message) (string, *llm.LLMCallStats, error)
	LastMessages []llm.Message
}

func (m *MockLLMService) Chat(ctx context.Context, messages []llm.Message) (string, *llm.LLMCallStats, error) {
	m.LastMessages = messages
	return m.ChatFunc(ctx, messages)
}

func (m *MockLLMService) ChatStructured(ctx context.Context, messages []llm.Message, _ *llm.ResponseSchema) (string, *llm.LLMCallStats, error) {
	return m.Chat(ctx, messages)
}

func (m *MockLLMService) Warmup(context.Context) {}

type llmRecorderStub struct {
	model  string
	prompt int
}

func (r *llmRecorderStub) RecordLLMCall(model string, promptTokens, _ int, _ time.Duration) {
	r.model, r.prompt = model, promptTokens
}

func TestLLMResponder(t *testing.T) {
	svc := &MockLLMService{ChatFunc: func(context.Context, []llm.Message) (string, *llm.LLMCallStats, error) {
		return "  Take a breath.  ", &llm.LLMCallStats{PromptTokens: 42, CompletionTokens: 4}, nil
	}}
	rec := &llmRecorderStub{}
	r := NewLLMResponder(svc, "gpt-4o-mini", rec)

	reply, err := r.Reply(context.Background(), ReplyRequest{
		Persona: "coach",
		Mode:    emotion.ModeListener,
		History: []*store.Message{
			{Role: store.MessageRoleAssistant, Content: "How are you?"},
			{Role: store.MessageRoleUser, Content: "Overwhelmed."},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Take a breath.", reply)
	assert.Equal(t, "gpt-4o-mini", rec.model)
	assert.Equal(t, 42, rec.prompt)

	require.Len(t, svc.LastMessages, 3)
	assert.Equal(t, "system", svc.LastMessages[0].Role)
	assert.Contains(t, svc.LastMessages[0].Content, "coach mode")
	assert.Contains(t, svc.LastMessages[0].Content, "overwhelmed")
	assert.Equal(t, "assistant", svc.LastMessages[1].Role)
	assert.Equal(t, "user", svc.LastMessages[2].Role)
}

func TestLLMResponder_EmptyReply(t *testing.T) {
	svc := &MockLLMService{ChatFunc: func(context.Context, []llm.Message) (string, *llm.LLMCallStats, error) {
		return "   ", nil, nil
	}}
	_, err := NewLLMResponder(svc, "m", nil).Reply(context.Background(), ReplyRequest{})
	assert.Error(t, err)
}

func TestSystemPrompt_Fallbacks(t *testing.T) {
	assert.Equal(t, SystemPrompt(store.DefaultPersona, emotion.ModeDefault), SystemPrompt("pirate", emotion.ResponseMode("shouty")))
	assert.NotEqual(t, SystemPrompt("friend", emotion.ModeSupport), SystemPrompt("friend", emotion.ModeChallenger))
}
