package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/echomind/ai/core/llm"
	"github.com/hrygo/echomind/ai/emotion"
	"github.com/hrygo/echomind/store"
)

// ReplyRequest carries what a responder needs to answer the latest user message.
type ReplyRequest struct {
	Persona string
	Mode    emotion.ResponseMode
	// History is the conversation in creation order, ending with the user message.
	History []*store.Message
	UserID  int32
}

// Responder produces the assistant's reply for a turn.
type Responder interface {
	Reply(ctx context.Context, req ReplyRequest) (string, error)
}

// LLMRecorder receives token usage of reply completions.
type LLMRecorder interface {
	RecordLLMCall(model string, promptTokens, completionTokens int, latency time.Duration)
}

const maxHistoryMessages = 20

var modePrompts = map[emotion.ResponseMode]string{
	emotion.ModeSupport:    "The user is hurting. Be warm and validating. Reflect their feelings before offering anything else, and do not rush to fix.",
	emotion.ModeMotivator:  "The user is sharing momentum or a goal. Be energetic, celebrate progress and help them name the next concrete step.",
	emotion.ModeChallenger: "The user may be avoiding something. Be kind but direct, ask one pointed question that invites honest reflection.",
	emotion.ModeListener:   "The user is overwhelmed. Keep it short and calm. Acknowledge, slow things down, ask at most one gentle question.",
	emotion.ModeAnalyst:    "The user wants to think something through. Be clear and structured, break the problem down and offer options.",
	emotion.ModeDefault:    "Be friendly and natural, like a thoughtful companion.",
}

var personaPrompts = map[string]string{
	store.DefaultPersona: "You are EchoMind, a reflective companion who remembers what the user shares and helps them grow.",
	"coach":              "You are EchoMind in coach mode: practical, encouraging and focused on habits and goals.",
	"friend":             "You are EchoMind in friend mode: casual, warm and playful.",
}

// LLMResponder replies with a chat completion steered by persona and response mode.
type LLMResponder struct {
	llm      llm.Service
	model    string
	recorder LLMRecorder
}

func NewLLMResponder(svc llm.Service, model string, recorder LLMRecorder) *LLMResponder {
	return &LLMResponder{llm: svc, model: model, recorder: recorder}
}

func (r *LLMResponder) Reply(ctx context.Context, req ReplyRequest) (string, error) {
	history := req.History
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.SystemPrompt(SystemPrompt(req.Persona, req.Mode)))
	for _, m := range history {
		if m.Role == store.MessageRoleAssistant {
			messages = append(messages, llm.AssistantMessage(m.Content))
		} else {
			messages = append(messages, llm.UserMessage(m.Content))
		}
	}

	content, stats, err := r.llm.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	if r.recorder != nil && stats != nil {
		r.recorder.RecordLLMCall(r.model, stats.PromptTokens, stats.CompletionTokens, time.Duration(stats.TotalDurationMs)*time.Millisecond)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.New("empty reply")
	}
	return content, nil
}

// SystemPrompt combines the persona with the stance for a response mode.
// Unknown personas and modes use the defaults.
func SystemPrompt(persona string, mode emotion.ResponseMode) string {
	base, ok := personaPrompts[persona]
	if !ok {
		base = personaPrompts[store.DefaultPersona]
	}
	stance, ok := modePrompts[mode]
	if !ok {
		stance = modePrompts[emotion.ModeDefault]
	}
	return fmt.Sprintf("%s\n%s\nReply in the user's language.", base, stance)
}
