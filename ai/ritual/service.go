// Package ritual produces and stores daily and weekly retrospectives.
package ritual

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/echomind/store"
)

const defaultHistoryLimit = 10

// Generator produces one retrospective for a user.
type Generator interface {
	Generate(ctx context.Context, userID int32, ritualType store.RitualType) (*store.RitualSummary, error)
}

// Store persists retrospectives append-only.
type Store interface {
	CreateRitualSummary(ctx context.Context, create *store.RitualSummary) (*store.RitualSummary, error)
	ListRitualSummaries(ctx context.Context, find *store.FindRitualSummary) ([]*store.RitualSummary, error)
}

// Recorder receives generation outcomes.
type Recorder interface {
	RecordRitual(ritualType string, ok bool)
}

type Service struct {
	generator Generator
	store     Store
	recorder  Recorder
	now       func() time.Time
}

func NewService(generator Generator, s Store, recorder Recorder) *Service {
	return &Service{generator: generator, store: s, recorder: recorder, now: time.Now}
}

// GenerateRitual generates and persists a retrospective. It returns nil on any failure.
func (s *Service) GenerateRitual(ctx context.Context, userID int32, ritualType store.RitualType) *store.RitualSummary {
	if userID == 0 || !ritualType.Valid() || s.generator == nil {
		return nil
	}

	summary, err := s.generator.Generate(ctx, userID, ritualType)
	if err != nil || summary == nil {
		slog.Warn("ritual generation failed", "user_id", userID, "ritual_type", ritualType, "error", err)
		s.record(ritualType, false)
		return nil
	}

	summary.ID = ""
	summary.UserID = userID
	summary.Type = ritualType
	if summary.CreatedTs == 0 {
		summary.CreatedTs = s.now().UnixMilli()
	}
	if summary.PeriodEnd == 0 {
		summary.PeriodEnd = summary.CreatedTs
	}
	if summary.PeriodStart == 0 {
		summary.PeriodStart = summary.PeriodEnd - PeriodFor(ritualType).Milliseconds()
	}

	created, err := s.store.CreateRitualSummary(ctx, summary)
	if err != nil {
		slog.Error("failed to persist ritual summary", "user_id", userID, "ritual_type", ritualType, "error", err)
		s.record(ritualType, false)
		return nil
	}
	s.record(ritualType, true)
	return created
}

// FetchRitualHistory returns the newest retrospectives first. limit <= 0 means 10.
func (s *Service) FetchRitualHistory(ctx context.Context, userID int32, limit int) ([]*store.RitualSummary, error) {
	if userID == 0 {
		return []*store.RitualSummary{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.store.ListRitualSummaries(ctx, &store.FindRitualSummary{UserID: &userID, Limit: &limit})
}

func (s *Service) record(ritualType store.RitualType, ok bool) {
	if s.recorder != nil {
		s.recorder.RecordRitual(string(ritualType), ok)
	}
}

// PeriodFor returns the span a ritual covers.
func PeriodFor(ritualType store.RitualType) time.Duration {
	if ritualType == store.RitualTypeWeekly {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}
