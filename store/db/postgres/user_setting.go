package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hrygo/echomind/store"
)

const userSettingColumns = `user_id, persona, emotion_tagging, proactive_insights, ritual_reminders, daily_ritual_hour, weekly_ritual_day, updated_ts`

func (d *DB) GetUserSetting(ctx context.Context, userID int32) (*store.UserSetting, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+userSettingColumns+` FROM user_setting WHERE user_id = `+placeholder(1), userID)
	setting, err := scanUserSetting(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user setting: %w", err)
	}
	return setting, nil
}

func (d *DB) UpsertUserSetting(ctx context.Context, upsert *store.UserSetting) (*store.UserSetting, error) {
	stmt := `INSERT INTO user_setting (` + userSettingColumns + `)
		VALUES (` + placeholders(8) + `)
		ON CONFLICT (user_id) DO UPDATE SET
			persona = EXCLUDED.persona,
			emotion_tagging = EXCLUDED.emotion_tagging,
			proactive_insights = EXCLUDED.proactive_insights,
			ritual_reminders = EXCLUDED.ritual_reminders,
			daily_ritual_hour = EXCLUDED.daily_ritual_hour,
			weekly_ritual_day = EXCLUDED.weekly_ritual_day,
			updated_ts = EXCLUDED.updated_ts
		RETURNING ` + userSettingColumns
	row := d.db.QueryRowContext(ctx, stmt,
		upsert.UserID,
		upsert.Persona,
		upsert.EmotionTagging,
		upsert.ProactiveInsights,
		upsert.RitualReminders,
		upsert.DailyRitualHour,
		int(upsert.WeeklyRitualDay),
		upsert.UpdatedTs,
	)
	setting, err := scanUserSetting(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user setting: %w", err)
	}
	return setting, nil
}

func scanUserSetting(row *sql.Row) (*store.UserSetting, error) {
	s := &store.UserSetting{}
	var weekday int
	if err := row.Scan(&s.UserID, &s.Persona, &s.EmotionTagging, &s.ProactiveInsights, &s.RitualReminders, &s.DailyRitualHour, &weekday, &s.UpdatedTs); err != nil {
		return nil, err
	}
	s.WeeklyRitualDay = time.Weekday(weekday)
	return s, nil
}
