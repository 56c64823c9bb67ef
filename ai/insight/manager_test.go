package insight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/echomind/store"
)

var (
	insightA = store.ProactiveInsight{ID: "a", Type: store.InsightTypeMoodDecline, Title: "A", Message: "a", Priority: store.InsightPriorityHigh, CreatedTs: 1}
	insightB = store.ProactiveInsight{ID: "b", Type: store.InsightTypeForgottenGoal, Title: "B", Message: "b", Priority: store.InsightPriorityNormal, CreatedTs: 2}
)

func TestFetchInsights_GeneratorFailureIsEmpty(t *testing.T) {
	s := newTestStore(t)
	m := NewManager(&MockGenerator{}, s, nil)

	got := m.FetchInsights(context.Background(), 1)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetchInsights_AnonymousIsNoop(t *testing.T) {
	gen := returning(insightA)
	m := NewManager(gen, newTestStore(t), nil)

	assert.Empty(t, m.FetchInsights(context.Background(), 0))
	assert.Zero(t, gen.Calls)
	assert.NoError(t, m.DismissInsight(context.Background(), 0, "a"))
	assert.NoError(t, m.MarkSurfaced(context.Background(), 0, "a"))
}

func TestDeliverInsights_MarksSurfaced(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	rec := &recorderStub{}
	m := NewManager(returning(insightA, insightB), s, rec)

	delivered := m.DeliverInsights(ctx, 1, nil)
	require.Len(t, delivered, 2)
	for _, in := range delivered {
		assert.True(t, in.IsSurfaced)
		assert.False(t, in.IsDismissed)
	}
	assert.Equal(t, 2, rec.delivered)

	userID := int32(1)
	stored, err := s.ListProactiveInsights(ctx, &store.FindProactiveInsight{UserID: &userID})
	require.NoError(t, err)
	for _, in := range stored {
		assert.True(t, in.IsSurfaced, "durable flag must be set before delivery")
	}
}

func TestDismiss_MonotonicAcrossFetches(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	m := NewManager(returning(insightA, insightB), s, nil)

	_ = m.DeliverInsights(ctx, 1, nil)
	require.NoError(t, m.DismissInsight(ctx, 1, "a"))
	require.NoError(t, m.DismissInsight(ctx, 1, "a"))

	// The generator still returns "a" unsurfaced; durable flags win.
	fetched := m.FetchInsights(ctx, 1)
	require.Len(t, fetched, 2)
	for _, in := range fetched {
		if in.ID == "a" {
			assert.True(t, in.IsSurfaced)
			assert.True(t, in.IsDismissed)
		}
	}
	assert.Equal(t, []string{"b"}, ids(m.DeliverInsights(ctx, 1, nil)))
}

func TestMarkSurfaced_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	m := NewManager(returning(insightA), s, nil)
	_ = m.FetchInsights(ctx, 1)

	require.NoError(t, m.MarkSurfaced(ctx, 1, "a"))
	require.NoError(t, m.MarkSurfaced(ctx, 1, "a"))

	id := "a"
	list, err := s.ListProactiveInsights(ctx, &store.FindProactiveInsight{ID: &id})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsSurfaced)
	assert.False(t, list[0].IsDismissed)
}

func TestDismissInsight_UnknownID(t *testing.T) {
	m := NewManager(returning(), newTestStore(t), nil)
	err := m.DismissInsight(context.Background(), 1, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestDeliverInsights_SkipsUnmarkable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	fs := &failingStore{Store: s, failUpdates: true}
	m := NewManager(returning(insightA), fs, nil)

	assert.Empty(t, m.DeliverInsights(ctx, 1, nil))
}
