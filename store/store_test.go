package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/echomind/internal/profile"
	"github.com/hrygo/echomind/store"
	"github.com/hrygo/echomind/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{Mode: "dev", Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "store.db")}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestStore_GeneratesIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	conv, err := s.CreateConversation(ctx, &store.Conversation{CreatorID: 1, CreatedTs: 1, UpdatedTs: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, conv.UID)
	assert.NotZero(t, conv.ID)

	insight, err := s.UpsertProactiveInsight(ctx, &store.ProactiveInsight{UserID: 1, Type: "pattern_alert", Title: "t", Message: "m", Priority: "urgent"})
	require.NoError(t, err)
	assert.NotEmpty(t, insight.ID)
	assert.Equal(t, store.InsightPriorityNormal, insight.Priority)

	ritual, err := s.CreateRitualSummary(ctx, &store.RitualSummary{UserID: 1, Type: store.RitualTypeWeekly, Summary: "s"})
	require.NoError(t, err)
	assert.NotEmpty(t, ritual.ID)
}

func TestStore_GetConversationNotFound(t *testing.T) {
	s := newTestStore(t)
	id := int32(42)
	_, err := s.GetConversation(context.Background(), &store.FindConversation{ID: &id})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_UserSettingDefaultsAndCache(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	setting, err := s.GetUserSetting(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, store.DefaultUserSetting(7), setting)

	// Mutating the returned copy must not leak into the cache.
	setting.Persona = "mutated"
	again, err := s.GetUserSetting(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, store.DefaultPersona, again.Persona)

	update := store.DefaultUserSetting(7)
	update.Persona = ""
	update.DailyRitualHour = 8
	update.WeeklyRitualDay = time.Monday
	saved, err := s.UpsertUserSetting(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, store.DefaultPersona, saved.Persona)

	loaded, err := s.GetUserSetting(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.DailyRitualHour)
	assert.Equal(t, time.Monday, loaded.WeeklyRitualDay)
}

func TestNormalizeInsightPriority(t *testing.T) {
	assert.Equal(t, store.InsightPriorityHigh, store.NormalizeInsightPriority("high"))
	assert.Equal(t, store.InsightPriorityLow, store.NormalizeInsightPriority("low"))
	assert.Equal(t, store.InsightPriorityNormal, store.NormalizeInsightPriority(""))
	assert.Equal(t, store.InsightPriorityNormal, store.NormalizeInsightPriority("critical"))
}
