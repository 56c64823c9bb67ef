package ritual

import (
	"context"
	"errors"
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
	p := &profile.Profile{Mode: "dev", Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "ritual.db")}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// MockGenerator is a mock implementation of Generator for testing.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, userID int32, ritualType store.RitualType) (*store.RitualSummary, error)
	Calls        int
}

func (m *MockGenerator) Generate(ctx context.Context, userID int32, ritualType store.RitualType) (*store.RitualSummary, error) {
	m.Calls++
	return m.GenerateFunc(ctx, userID, ritualType)
}

type recorderStub struct {
	ok, failed int
}

func (r *recorderStub) RecordRitual(_ string, ok bool) {
	if ok {
		r.ok++
	} else {
		r.failed++
	}
}

type failingStore struct{ Store }

func (failingStore) CreateRitualSummary(context.Context, *store.RitualSummary) (*store.RitualSummary, error) {
	return nil, errors.New("disk full")
}

func TestGenerateRitual_PersistsAndFillsPeriod(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	rec := &recorderStub{}
	gen := &MockGenerator{GenerateFunc: func(_ context.Context, _ int32, _ store.RitualType) (*store.RitualSummary, error) {
		return &store.RitualSummary{ID: "ignored", Summary: "A steady week.", Intentions: []string{"sleep earlier"}}, nil
	}}
	svc := NewService(gen, s, rec)
	now := time.Date(2024, 6, 9, 20, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	got := svc.GenerateRitual(ctx, 3, store.RitualTypeWeekly)
	require.NotNil(t, got)
	assert.NotEqual(t, "ignored", got.ID)
	assert.Equal(t, int32(3), got.UserID)
	assert.Equal(t, store.RitualTypeWeekly, got.Type)
	assert.Equal(t, now.UnixMilli(), got.PeriodEnd)
	assert.Equal(t, now.Add(-7*24*time.Hour).UnixMilli(), got.PeriodStart)
	assert.Equal(t, 1, rec.ok)

	history, err := svc.FetchRitualHistory(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, []string{"sleep earlier"}, history[0].Intentions)
}

func TestGenerateRitual_FailuresReturnNil(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	okGen := &MockGenerator{GenerateFunc: func(context.Context, int32, store.RitualType) (*store.RitualSummary, error) {
		return &store.RitualSummary{Summary: "x"}, nil
	}}
	errGen := &MockGenerator{GenerateFunc: func(context.Context, int32, store.RitualType) (*store.RitualSummary, error) {
		return nil, errors.New("upstream 503")
	}}

	tests := []struct {
		name       string
		svc        *Service
		userID     int32
		ritualType store.RitualType
	}{
		{"generator error", NewService(errGen, s, nil), 1, store.RitualTypeDaily},
		{"store error", NewService(okGen, failingStore{s}, nil), 1, store.RitualTypeDaily},
		{"invalid type", NewService(okGen, s, nil), 1, store.RitualType("monthly")},
		{"anonymous", NewService(okGen, s, nil), 0, store.RitualTypeDaily},
		{"no generator", NewService(nil, s, nil), 1, store.RitualTypeDaily},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, tt.svc.GenerateRitual(ctx, tt.userID, tt.ritualType))
		})
	}
}

func TestFetchRitualHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		_, err := s.CreateRitualSummary(ctx, &store.RitualSummary{
			UserID:    5,
			Type:      store.RitualTypeDaily,
			Summary:   "day",
			CreatedTs: base.Add(time.Duration(i) * 24 * time.Hour).UnixMilli(),
		})
		require.NoError(t, err)
	}
	svc := NewService(nil, s, nil)

	history, err := svc.FetchRitualHistory(ctx, 5, -1)
	require.NoError(t, err)
	require.Len(t, history, 10)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i-1].CreatedTs, history[i].CreatedTs)
	}

	history, err = svc.FetchRitualHistory(ctx, 5, 3)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	history, err = svc.FetchRitualHistory(ctx, 0, 3)
	require.NoError(t, err)
	assert.Empty(t, history)
}
