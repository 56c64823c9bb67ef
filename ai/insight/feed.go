package insight

import (
	"context"
	"sync"

	"github.com/hrygo/echomind/store"
)

// Feed is one session's view of a user's insights. Ids dismissed in this
// session stay hidden even if a later fetch returns them again; the local set
// can only hide more than the durable flags, never less.
type Feed struct {
	manager *Manager
	userID  int32

	mu        sync.Mutex
	dismissed map[string]struct{}
	visible   []*store.ProactiveInsight
}

func NewFeed(manager *Manager, userID int32) *Feed {
	return &Feed{
		manager:   manager,
		userID:    userID,
		dismissed: make(map[string]struct{}),
	}
}

// Refresh fetches and delivers insights, replacing the visible list.
func (f *Feed) Refresh(ctx context.Context) []*store.ProactiveInsight {
	delivered := f.manager.DeliverInsights(ctx, f.userID, f.isHidden)

	f.mu.Lock()
	defer f.mu.Unlock()
	// A Dismiss may have landed while the fetch was in flight.
	visible := make([]*store.ProactiveInsight, 0, len(delivered))
	for _, in := range delivered {
		if _, ok := f.dismissed[in.ID]; !ok {
			visible = append(visible, in)
		}
	}
	f.visible = visible
	return f.snapshot()
}

// Visible returns the insights currently shown.
func (f *Feed) Visible() []*store.ProactiveInsight {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

// Dismiss hides the insight immediately and persists the dismissal.
// On a store failure the local change is rolled back and the error returned.
func (f *Feed) Dismiss(ctx context.Context, id string) error {
	f.mu.Lock()
	_, already := f.dismissed[id]
	f.dismissed[id] = struct{}{}
	index := -1
	var removed *store.ProactiveInsight
	for i, in := range f.visible {
		if in.ID == id {
			index, removed = i, in
			f.visible = append(f.visible[:i:i], f.visible[i+1:]...)
			break
		}
	}
	f.mu.Unlock()

	if err := f.manager.DismissInsight(ctx, f.userID, id); err != nil {
		f.mu.Lock()
		if !already {
			delete(f.dismissed, id)
		}
		if removed != nil {
			if index > len(f.visible) {
				index = len(f.visible)
			}
			f.visible = append(f.visible[:index:index], append([]*store.ProactiveInsight{removed}, f.visible[index:]...)...)
		}
		f.mu.Unlock()
		return err
	}

	if removed != nil {
		removed.IsSurfaced = true
		removed.IsDismissed = true
	}
	return nil
}

func (f *Feed) isHidden(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.dismissed[id]
	return ok
}

// Must be called with lock held.
func (f *Feed) snapshot() []*store.ProactiveInsight {
	out := make([]*store.ProactiveInsight, len(f.visible))
	copy(out, f.visible)
	return out
}
