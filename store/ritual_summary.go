package store

type RitualType string

const (
	RitualTypeDaily  RitualType = "daily"
	RitualTypeWeekly RitualType = "weekly"
)

func (t RitualType) Valid() bool {
	return t == RitualTypeDaily || t == RitualTypeWeekly
}

// RitualSummary is an append-only retrospective over [PeriodStart, PeriodEnd].
type RitualSummary struct {
	ID               string
	Type             RitualType
	Summary          string
	MoodTrend        string
	GoalsReviewed    []string
	Accomplishments  []string
	Intentions       []string
	GrowthHighlights []string
	PeriodStart      int64
	PeriodEnd        int64
	CreatedTs        int64
	UserID           int32
}

type FindRitualSummary struct {
	UserID *int32
	Type   *RitualType
	Limit  *int
}
