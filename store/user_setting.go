package store

import "time"

const DefaultPersona = "default"

// UserSetting holds per-user preferences for tagging, insights and rituals.
type UserSetting struct {
	Persona           string
	UpdatedTs         int64
	DailyRitualHour   int
	WeeklyRitualDay   time.Weekday
	UserID            int32
	EmotionTagging    bool
	ProactiveInsights bool
	RitualReminders   bool
}

func DefaultUserSetting(userID int32) *UserSetting {
	return &UserSetting{
		UserID:            userID,
		Persona:           DefaultPersona,
		EmotionTagging:    true,
		ProactiveInsights: true,
		RitualReminders:   true,
		DailyRitualHour:   21,
		WeeklyRitualDay:   time.Sunday,
	}
}
