package store

// Known insight types. The set is open; generators may emit others.
const (
	InsightTypeMoodDecline           = "mood_decline"
	InsightTypeHighIntensity         = "high_intensity"
	InsightTypeForgottenGoal         = "forgotten_goal"
	InsightTypePatternAlert          = "pattern_alert"
	InsightTypeIdentityReinforcement = "identity_reinforcement"
	InsightTypeUnresolvedThread      = "unresolved_thread"
)

type InsightPriority string

const (
	InsightPriorityLow    InsightPriority = "low"
	InsightPriorityNormal InsightPriority = "normal"
	InsightPriorityHigh   InsightPriority = "high"
)

// NormalizeInsightPriority maps unknown values to normal.
func NormalizeInsightPriority(p string) InsightPriority {
	switch InsightPriority(p) {
	case InsightPriorityLow, InsightPriorityHigh:
		return InsightPriority(p)
	default:
		return InsightPriorityNormal
	}
}

// ProactiveInsight moves CREATED -> SURFACED -> DISMISSED and never back.
// IsDismissed implies IsSurfaced.
type ProactiveInsight struct {
	ID          string
	Type        string
	Title       string
	Message     string
	Priority    InsightPriority
	CreatedTs   int64
	UserID      int32
	IsSurfaced  bool
	IsDismissed bool
}

type FindProactiveInsight struct {
	ID             *string
	UserID         *int32
	Type           *string
	IsDismissed    *bool
	CreatedTsAfter *int64
	Limit          *int
}

// UpdateProactiveInsight only ever raises flags. Dismiss raises both.
type UpdateProactiveInsight struct {
	ID      string
	UserID  int32
	Surface bool
	Dismiss bool
}
