package ritual

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/echomind/ai/core/llm"
	"github.com/hrygo/echomind/internal/strutil"
	"github.com/hrygo/echomind/store"
)

// ErrNoActivity means the period has no messages to reflect on.
var ErrNoActivity = errors.New("no messages in ritual period")

// MessageStore reads the messages a ritual summarizes.
type MessageStore interface {
	ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error)
}

const (
	maxTranscriptMessages = 200
	maxMessageRunes       = 300
)

const ritualSystemPrompt = `You write a short %s reflection for the user based on their conversation history.
Speak to the user in the second person, warm and concrete. Do not invent events.
Reply with one JSON object:
{"summary": string, "goals_reviewed": [string], "accomplishments": [string], "intentions": [string], "growth_highlights": [string], "mood_trend": string}
mood_trend is one of: improving, stable, declining, mixed.`

// LLMGenerator compresses the period's emotion-tagged messages into a retrospective.
type LLMGenerator struct {
	llm      llm.Service
	messages MessageStore
	schema   *llm.ResponseSchema
	now      func() time.Time
}

func NewLLMGenerator(svc llm.Service, messages MessageStore) *LLMGenerator {
	return &LLMGenerator{
		llm:      svc,
		messages: messages,
		schema: &llm.ResponseSchema{
			Name:   "ritual_summary",
			Schema: llm.GenerateSchema[document](),
		},
		now: time.Now,
	}
}

func (g *LLMGenerator) Generate(ctx context.Context, userID int32, ritualType store.RitualType) (*store.RitualSummary, error) {
	end := g.now()
	start := end.Add(-PeriodFor(ritualType))
	startTs := start.UnixMilli()
	limit := maxTranscriptMessages

	msgs, err := g.messages.ListMessages(ctx, &store.FindMessage{
		CreatorID:      &userID,
		CreatedTsAfter: &startTs,
		OrderDesc:      true,
		Limit:          &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list ritual messages: %w", err)
	}
	if len(msgs) == 0 {
		return nil, ErrNoActivity
	}

	messages := []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(ritualSystemPrompt, ritualType)),
		llm.UserMessage(transcript(msgs)),
	}
	raw, _, err := g.llm.ChatStructured(ctx, messages, g.schema)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		raw, _, err = g.llm.Chat(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("ritual completion: %w", err)
		}
	}

	obj, ok := strutil.ExtractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("ritual completion had no JSON object")
	}
	var doc document
	if err := json.Unmarshal([]byte(obj), &doc); err != nil {
		return nil, fmt.Errorf("decode ritual completion: %w", err)
	}
	summary, err := doc.toSummary()
	if err != nil {
		return nil, err
	}
	summary.PeriodStart = startTs
	summary.PeriodEnd = end.UnixMilli()
	return summary, nil
}

// transcript renders messages oldest first, one per line, tagged with role and emotion.
func transcript(newestFirst []*store.Message) string {
	var b strings.Builder
	for i := len(newestFirst) - 1; i >= 0; i-- {
		m := newestFirst[i]
		ts := time.UnixMilli(m.CreatedTs).UTC().Format("Mon 15:04")
		tag := ""
		if m.Emotion != nil && *m.Emotion != "" {
			tag = " (" + *m.Emotion + ")"
		}
		fmt.Fprintf(&b, "[%s] %s%s: %s\n", ts, m.Role, tag, strutil.Truncate(m.Content, maxMessageRunes))
	}
	return b.String()
}
