package insight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/echomind/store"
)

func TestFeed_SessionDedup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	m := NewManager(returning(insightA, insightB), s, nil)
	feed := NewFeed(m, 1)

	assert.ElementsMatch(t, []string{"a", "b"}, ids(feed.Refresh(ctx)))

	require.NoError(t, feed.Dismiss(ctx, "a"))
	assert.Equal(t, []string{"b"}, ids(feed.Visible()))

	// The generator keeps returning "a"; it stays hidden for this session.
	assert.Equal(t, []string{"b"}, ids(feed.Refresh(ctx)))
}

func TestFeed_DurableDismissalHidesInNewSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	m := NewManager(returning(insightA, insightB), s, nil)

	first := NewFeed(m, 1)
	first.Refresh(ctx)
	require.NoError(t, first.Dismiss(ctx, "b"))

	second := NewFeed(m, 1)
	assert.Equal(t, []string{"a"}, ids(second.Refresh(ctx)))
}

func TestFeed_DismissRollsBackOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	fs := &failingStore{Store: s}
	m := NewManager(returning(insightA, insightB), fs, nil)
	feed := NewFeed(m, 1)

	before := ids(feed.Refresh(ctx))
	require.Len(t, before, 2)

	fs.failUpdates = true
	err := feed.Dismiss(ctx, before[0])
	require.Error(t, err)
	assert.Equal(t, before, ids(feed.Visible()), "visible list restored in place")

	fs.failUpdates = false
	assert.ElementsMatch(t, before, ids(feed.Refresh(ctx)), "rolled back id is not hidden")

	id := before[0]
	stored, err := s.ListProactiveInsights(ctx, &store.FindProactiveInsight{ID: &id})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].IsDismissed)
}

func TestFeed_DismissNotVisible(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	m := NewManager(returning(insightA), s, nil)
	feed := NewFeed(m, 1)

	// Persist "a" without delivering it.
	_ = m.FetchInsights(ctx, 1)
	require.NoError(t, feed.Dismiss(ctx, "a"))
	assert.Empty(t, feed.Refresh(ctx))
}
