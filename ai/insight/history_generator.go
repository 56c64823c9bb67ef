package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/hrygo/echomind/internal/strutil"
	"github.com/hrygo/echomind/store"
)

// HistoryStore is the slice of the store the built-in generator reads and writes.
type HistoryStore interface {
	ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error)
	ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error)
	UpsertProactiveInsight(ctx context.Context, upsert *store.ProactiveInsight) (*store.ProactiveInsight, error)
	ListProactiveInsights(ctx context.Context, find *store.FindProactiveInsight) ([]*store.ProactiveInsight, error)
}

// HistoryConfig tunes the built-in detectors.
type HistoryConfig struct {
	// Window is the number of recent user messages compared against the window before it.
	Window int
	// MinSample is the fewest recent messages needed before judging mood.
	MinSample int
	// DeclineThreshold is the negative share of the recent window that counts as a decline.
	DeclineThreshold float64
	// HighIntensity is the intensity at or above which a negative message is flagged.
	HighIntensity float64
	// HighIntensityWithin limits high_intensity to recent messages.
	HighIntensityWithin time.Duration
	// UnresolvedAfter is how long a thread must sit with the user's message unanswered.
	UnresolvedAfter time.Duration
	// UnresolvedMaxAge ignores threads abandoned longer ago than this.
	UnresolvedMaxAge time.Duration
	// Limit caps the undismissed insights returned.
	Limit int
}

func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Window:              10,
		MinSample:           5,
		DeclineThreshold:    0.6,
		HighIntensity:       0.8,
		HighIntensityWithin: 48 * time.Hour,
		UnresolvedAfter:     24 * time.Hour,
		UnresolvedMaxAge:    14 * 24 * time.Hour,
		Limit:               20,
	}
}

// HistoryGenerator derives insights from the user's stored, emotion-tagged messages.
// Each insight type is produced at most once per UTC day.
type HistoryGenerator struct {
	store HistoryStore
	cfg   HistoryConfig
	now   func() time.Time
}

func NewHistoryGenerator(s HistoryStore, cfg HistoryConfig) *HistoryGenerator {
	return &HistoryGenerator{store: s, cfg: cfg, now: time.Now}
}

var negativeKinds = map[string]bool{
	"sadness": true, "anger": true, "fear": true, "stress": true, "shame": true,
	"burnout": true, "anxiety": true, "frustration": true,
}

func isNegative(m *store.Message) bool {
	if m.EmotionPayload != nil {
		return m.EmotionPayload.Polarity == "negative"
	}
	return m.Emotion != nil && negativeKinds[*m.Emotion]
}

func negativeShare(msgs []*store.Message) float64 {
	if len(msgs) == 0 {
		return 0
	}
	n := 0
	for _, m := range msgs {
		if isNegative(m) {
			n++
		}
	}
	return float64(n) / float64(len(msgs))
}

func (g *HistoryGenerator) Generate(ctx context.Context, userID int32) ([]*store.ProactiveInsight, error) {
	now := g.now()
	day := now.UTC().Format("2006-01-02")

	role := store.MessageRoleUser
	limit := g.cfg.Window * 2
	msgs, err := g.store.ListMessages(ctx, &store.FindMessage{
		CreatorID: &userID,
		Role:      &role,
		OrderDesc: true,
		Limit:     &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}

	var candidates []*store.ProactiveInsight
	if c := g.moodDecline(msgs); c != nil {
		candidates = append(candidates, c)
	}
	if c := g.highIntensity(msgs, now); c != nil {
		candidates = append(candidates, c)
	}
	c, err := g.unresolvedThread(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if c != nil {
		candidates = append(candidates, c)
	}

	for _, c := range candidates {
		c.ID = DeriveID(userID, c.Type, day)
		c.UserID = userID
		c.CreatedTs = now.UnixMilli()
		if _, err := g.store.UpsertProactiveInsight(ctx, c); err != nil {
			return nil, fmt.Errorf("persist %s insight: %w", c.Type, err)
		}
	}

	dismissed := false
	return g.store.ListProactiveInsights(ctx, &store.FindProactiveInsight{
		UserID:      &userID,
		IsDismissed: &dismissed,
		Limit:       &g.cfg.Limit,
	})
}

func (g *HistoryGenerator) moodDecline(newestFirst []*store.Message) *store.ProactiveInsight {
	window := g.cfg.Window
	if len(newestFirst) < g.cfg.MinSample {
		return nil
	}
	recent := newestFirst
	var previous []*store.Message
	if len(newestFirst) > window {
		recent, previous = newestFirst[:window], newestFirst[window:]
	}

	recentShare, previousShare := negativeShare(recent), negativeShare(previous)
	if recentShare < g.cfg.DeclineThreshold || recentShare <= previousShare {
		return nil
	}
	return &store.ProactiveInsight{
		Type:     store.InsightTypeMoodDecline,
		Title:    "Your mood has been lower lately",
		Message:  fmt.Sprintf("%d of your last %d messages carried a heavy tone. Want to talk about what has been weighing on you?", int(recentShare*float64(len(recent))+0.5), len(recent)),
		Priority: store.InsightPriorityHigh,
	}
}

func (g *HistoryGenerator) highIntensity(newestFirst []*store.Message, now time.Time) *store.ProactiveInsight {
	cutoff := now.Add(-g.cfg.HighIntensityWithin).UnixMilli()
	for _, m := range newestFirst {
		if m.CreatedTs < cutoff {
			break
		}
		e := m.EmotionPayload
		if e == nil || e.Polarity != "negative" || e.Intensity < g.cfg.HighIntensity {
			continue
		}
		msg := fmt.Sprintf("You recently expressed strong %s.", e.Emotion)
		if e.Trigger != nil && *e.Trigger != "" {
			msg = fmt.Sprintf("You recently expressed strong %s about %s.", e.Emotion, *e.Trigger)
		}
		return &store.ProactiveInsight{
			Type:     store.InsightTypeHighIntensity,
			Title:    "That sounded intense",
			Message:  msg + " Checking in: how are you feeling now?",
			Priority: store.InsightPriorityHigh,
		}
	}
	return nil
}

func (g *HistoryGenerator) unresolvedThread(ctx context.Context, userID int32, now time.Time) (*store.ProactiveInsight, error) {
	conversations, err := g.store.ListConversations(ctx, &store.FindConversation{CreatorID: &userID})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	staleBefore := now.Add(-g.cfg.UnresolvedAfter).UnixMilli()
	oldest := now.Add(-g.cfg.UnresolvedMaxAge).UnixMilli()
	one := 1
	// conversations are newest first
	for _, c := range conversations {
		if c.UpdatedTs > staleBefore {
			continue
		}
		if c.UpdatedTs < oldest {
			break
		}
		last, err := g.store.ListMessages(ctx, &store.FindMessage{ConversationID: &c.ID, OrderDesc: true, Limit: &one})
		if err != nil {
			return nil, fmt.Errorf("list last message: %w", err)
		}
		if len(last) == 0 || last[0].Role != store.MessageRoleUser {
			continue
		}
		title := "an earlier conversation"
		if c.Title != nil && *c.Title != "" {
			title = fmt.Sprintf("%q", *c.Title)
		}
		return &store.ProactiveInsight{
			Type:     store.InsightTypeUnresolvedThread,
			Title:    "Pick up where you left off?",
			Message:  fmt.Sprintf("You left %s open after saying: %s", title, strutil.Truncate(last[0].Content, 80)),
			Priority: store.InsightPriorityNormal,
		}, nil
	}
	return nil, nil
}
