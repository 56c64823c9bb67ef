package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/echomind/store"
)

// GetUserSetting returns nil without error when the user never saved settings.
func (d *DB) GetUserSetting(ctx context.Context, userID int32) (*store.UserSetting, error) {
	row := d.db.QueryRowContext(ctx, `SELECT user_id, persona, emotion_tagging, proactive_insights, ritual_reminders, daily_ritual_hour, weekly_ritual_day, updated_ts
		FROM user_setting WHERE user_id = ?`, userID)
	setting, err := scanUserSetting(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get user setting")
	}
	return setting, nil
}

func (d *DB) UpsertUserSetting(ctx context.Context, upsert *store.UserSetting) (*store.UserSetting, error) {
	stmt := `INSERT INTO user_setting (user_id, persona, emotion_tagging, proactive_insights, ritual_reminders, daily_ritual_hour, weekly_ritual_day, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			persona = excluded.persona,
			emotion_tagging = excluded.emotion_tagging,
			proactive_insights = excluded.proactive_insights,
			ritual_reminders = excluded.ritual_reminders,
			daily_ritual_hour = excluded.daily_ritual_hour,
			weekly_ritual_day = excluded.weekly_ritual_day,
			updated_ts = excluded.updated_ts
		RETURNING user_id, persona, emotion_tagging, proactive_insights, ritual_reminders, daily_ritual_hour, weekly_ritual_day, updated_ts`
	row := d.db.QueryRowContext(ctx, stmt,
		upsert.UserID,
		upsert.Persona,
		boolToInt(upsert.EmotionTagging),
		boolToInt(upsert.ProactiveInsights),
		boolToInt(upsert.RitualReminders),
		upsert.DailyRitualHour,
		int(upsert.WeeklyRitualDay),
		upsert.UpdatedTs,
	)
	setting, err := scanUserSetting(row)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert user setting")
	}
	return setting, nil
}

func scanUserSetting(row rowScanner) (*store.UserSetting, error) {
	s := &store.UserSetting{}
	var tagging, insights, rituals, weekday int
	if err := row.Scan(&s.UserID, &s.Persona, &tagging, &insights, &rituals, &s.DailyRitualHour, &weekday, &s.UpdatedTs); err != nil {
		return nil, err
	}
	s.EmotionTagging = tagging != 0
	s.ProactiveInsights = insights != 0
	s.RitualReminders = rituals != 0
	s.WeeklyRitualDay = time.Weekday(weekday)
	return s, nil
}
