package insight

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/echomind/internal/profile"
	"github.com/hrygo/echomind/store"
	"github.com/hrygo/echomind/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{Mode: "dev", Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "insight.db")}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// MockGenerator is a mock implementation of Generator for testing.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, userID int32) ([]*store.ProactiveInsight, error)
	Calls        int
}

func (m *MockGenerator) Generate(ctx context.Context, userID int32) ([]*store.ProactiveInsight, error) {
	m.Calls++
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

// returning hands out fresh copies so tests never share pointers with the manager.
func returning(insights ...store.ProactiveInsight) *MockGenerator {
	return &MockGenerator{GenerateFunc: func(context.Context, int32) ([]*store.ProactiveInsight, error) {
		out := make([]*store.ProactiveInsight, len(insights))
		for i := range insights {
			c := insights[i]
			out[i] = &c
		}
		return out, nil
	}}
}

// failingStore wraps a Store and fails updates on demand.
type failingStore struct {
	Store
	failUpdates bool
}

func (f *failingStore) UpdateProactiveInsight(ctx context.Context, update *store.UpdateProactiveInsight) error {
	if f.failUpdates {
		return errors.New("database is locked")
	}
	return f.Store.UpdateProactiveInsight(ctx, update)
}

type recorderStub struct {
	delivered int
	dismissed int
}

func (r *recorderStub) RecordInsightsDelivered(n int) { r.delivered += n }
func (r *recorderStub) RecordInsightDismissed()       { r.dismissed++ }

func ids(list []*store.ProactiveInsight) []string {
	out := make([]string, len(list))
	for i, in := range list {
		out[i] = in.ID
	}
	return out
}
