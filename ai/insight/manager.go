package insight

import (
	"context"
	"log/slog"

	"github.com/hrygo/echomind/store"
)

// Store is the durable side of the insight lifecycle.
type Store interface {
	UpsertProactiveInsight(ctx context.Context, upsert *store.ProactiveInsight) (*store.ProactiveInsight, error)
	UpdateProactiveInsight(ctx context.Context, update *store.UpdateProactiveInsight) error
}

// Recorder receives lifecycle counts.
type Recorder interface {
	RecordInsightsDelivered(n int)
	RecordInsightDismissed()
}

// Manager fetches insights from a Generator and owns their surfaced/dismissed flags.
// The durable flags are the single source of truth across sessions.
type Manager struct {
	generator Generator
	store     Store
	recorder  Recorder
}

func NewManager(generator Generator, s Store, recorder Recorder) *Manager {
	return &Manager{generator: generator, store: s, recorder: recorder}
}

// FetchInsights asks the generator for candidates and returns their durable copies.
// A generator failure yields an empty list; an insight that cannot be persisted is skipped.
func (m *Manager) FetchInsights(ctx context.Context, userID int32) []*store.ProactiveInsight {
	if userID == 0 || m.generator == nil {
		return []*store.ProactiveInsight{}
	}

	candidates, err := m.generator.Generate(ctx, userID)
	if err != nil {
		slog.Warn("insight generation failed", "user_id", userID, "error", err)
		return []*store.ProactiveInsight{}
	}

	list := make([]*store.ProactiveInsight, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		c.UserID = userID
		durable, err := m.store.UpsertProactiveInsight(ctx, c)
		if err != nil {
			slog.Warn("failed to persist insight", "user_id", userID, "insight_id", c.ID, "error", err)
			continue
		}
		if seen[durable.ID] {
			continue
		}
		seen[durable.ID] = true
		list = append(list, durable)
	}
	return list
}

// DeliverInsights fetches, drops anything durably dismissed or hidden, and
// marks the rest surfaced. Only insights that were marked are returned.
func (m *Manager) DeliverInsights(ctx context.Context, userID int32, hidden func(id string) bool) []*store.ProactiveInsight {
	fetched := m.FetchInsights(ctx, userID)

	delivered := make([]*store.ProactiveInsight, 0, len(fetched))
	for _, in := range fetched {
		if in.IsDismissed || (hidden != nil && hidden(in.ID)) {
			continue
		}
		if !in.IsSurfaced {
			if err := m.MarkSurfaced(ctx, userID, in.ID); err != nil {
				slog.Warn("failed to mark insight surfaced", "user_id", userID, "insight_id", in.ID, "error", err)
				continue
			}
			in.IsSurfaced = true
		}
		delivered = append(delivered, in)
	}

	if m.recorder != nil && len(delivered) > 0 {
		m.recorder.RecordInsightsDelivered(len(delivered))
	}
	return delivered
}

// MarkSurfaced is idempotent.
func (m *Manager) MarkSurfaced(ctx context.Context, userID int32, id string) error {
	if userID == 0 {
		return nil
	}
	return m.store.UpdateProactiveInsight(ctx, &store.UpdateProactiveInsight{ID: id, UserID: userID, Surface: true})
}

// DismissInsight sets surfaced and dismissed together. It is idempotent.
func (m *Manager) DismissInsight(ctx context.Context, userID int32, id string) error {
	if userID == 0 {
		return nil
	}
	if err := m.store.UpdateProactiveInsight(ctx, &store.UpdateProactiveInsight{ID: id, UserID: userID, Dismiss: true}); err != nil {
		return err
	}
	if m.recorder != nil {
		m.recorder.RecordInsightDismissed()
	}
	return nil
}
