package v1

import (
	"time"

	"github.com/hrygo/echomind/ai/emotion"
	"github.com/hrygo/echomind/store"
)

type Conversation struct {
	Title     *string `json:"title"`
	UID       string  `json:"uid"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
	ID        int32   `json:"id"`
}

type Message struct {
	Emotion        *string                 `json:"emotion"`
	Classification *emotion.Classification `json:"classification,omitempty"`
	UID            string                  `json:"uid"`
	Role           string                  `json:"role"`
	Content        string                  `json:"content"`
	CreatedAt      string                  `json:"createdAt"`
	ID             int64                   `json:"id"`
	ConversationID int32                   `json:"conversationId"`
}

type Insight struct {
	ID          string `json:"id"`
	Type        string `json:"insightType"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Priority    string `json:"priority"`
	CreatedAt   string `json:"createdAt"`
	IsSurfaced  bool   `json:"isSurfaced"`
	IsDismissed bool   `json:"isDismissed"`
}

type Ritual struct {
	ID               string   `json:"id"`
	Type             string   `json:"ritualType"`
	Summary          string   `json:"summary"`
	MoodTrend        string   `json:"moodTrend"`
	GoalsReviewed    []string `json:"goalsReviewed"`
	Accomplishments  []string `json:"accomplishments"`
	Intentions       []string `json:"intentions"`
	GrowthHighlights []string `json:"growthHighlights"`
	PeriodStart      string   `json:"periodStart"`
	PeriodEnd        string   `json:"periodEnd"`
	CreatedAt        string   `json:"createdAt"`
}

type Setting struct {
	Persona           string `json:"persona"`
	WeeklyRitualDay   string `json:"weeklyRitualDay"`
	DailyRitualHour   int    `json:"dailyRitualHour"`
	EmotionTagging    bool   `json:"emotionTagging"`
	ProactiveInsights bool   `json:"proactiveInsights"`
	RitualReminders   bool   `json:"ritualReminders"`
}

func formatTs(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}

func convertConversation(c *store.Conversation) *Conversation {
	if c == nil {
		return nil
	}
	return &Conversation{
		ID:        c.ID,
		UID:       c.UID,
		Title:     c.Title,
		CreatedAt: formatTs(c.CreatedTs),
		UpdatedAt: formatTs(c.UpdatedTs),
	}
}

func convertConversations(list []*store.Conversation) []*Conversation {
	out := make([]*Conversation, 0, len(list))
	for _, c := range list {
		out = append(out, convertConversation(c))
	}
	return out
}

func convertMessage(m *store.Message) *Message {
	if m == nil {
		return nil
	}
	msg := &Message{
		ID:             m.ID,
		UID:            m.UID,
		ConversationID: m.ConversationID,
		Role:           string(m.Role),
		Content:        m.Content,
		Emotion:        m.Emotion,
		CreatedAt:      formatTs(m.CreatedTs),
	}
	if m.EmotionPayload != nil {
		c := emotion.FromStore(m.EmotionPayload)
		msg.Classification = &c
	}
	return msg
}

func convertMessages(list []*store.Message) []*Message {
	out := make([]*Message, 0, len(list))
	for _, m := range list {
		out = append(out, convertMessage(m))
	}
	return out
}

func convertInsights(list []*store.ProactiveInsight) []*Insight {
	out := make([]*Insight, 0, len(list))
	for _, in := range list {
		out = append(out, &Insight{
			ID:          in.ID,
			Type:        in.Type,
			Title:       in.Title,
			Message:     in.Message,
			Priority:    string(in.Priority),
			CreatedAt:   formatTs(in.CreatedTs),
			IsSurfaced:  in.IsSurfaced,
			IsDismissed: in.IsDismissed,
		})
	}
	return out
}

func convertRitual(r *store.RitualSummary) *Ritual {
	if r == nil {
		return nil
	}
	return &Ritual{
		ID:               r.ID,
		Type:             string(r.Type),
		Summary:          r.Summary,
		MoodTrend:        r.MoodTrend,
		GoalsReviewed:    nonNil(r.GoalsReviewed),
		Accomplishments:  nonNil(r.Accomplishments),
		Intentions:       nonNil(r.Intentions),
		GrowthHighlights: nonNil(r.GrowthHighlights),
		PeriodStart:      formatTs(r.PeriodStart),
		PeriodEnd:        formatTs(r.PeriodEnd),
		CreatedAt:        formatTs(r.CreatedTs),
	}
}

func convertRituals(list []*store.RitualSummary) []*Ritual {
	out := make([]*Ritual, 0, len(list))
	for _, r := range list {
		out = append(out, convertRitual(r))
	}
	return out
}

func convertSetting(s *store.UserSetting) *Setting {
	return &Setting{
		Persona:           s.Persona,
		EmotionTagging:    s.EmotionTagging,
		ProactiveInsights: s.ProactiveInsights,
		RitualReminders:   s.RitualReminders,
		DailyRitualHour:   s.DailyRitualHour,
		WeeklyRitualDay:   s.WeeklyRitualDay.String(),
	}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
