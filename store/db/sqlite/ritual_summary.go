package sqlite

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/echomind/store"
)

func (d *DB) CreateRitualSummary(ctx context.Context, create *store.RitualSummary) (*store.RitualSummary, error) {
	lists := [][]string{create.GoalsReviewed, create.Accomplishments, create.Intentions, create.GrowthHighlights}
	encoded := make([]any, 0, len(lists))
	for _, list := range lists {
		if list == nil {
			list = []string{}
		}
		bytes, err := json.Marshal(list)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal ritual list")
		}
		encoded = append(encoded, string(bytes))
	}

	stmt := `INSERT INTO ritual_summary (id, user_id, ritual_type, summary, goals_reviewed, accomplishments, intentions, growth_highlights, mood_trend, period_start, period_end, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{create.ID, create.UserID, create.Type, create.Summary}
	args = append(args, encoded...)
	args = append(args, create.MoodTrend, create.PeriodStart, create.PeriodEnd, create.CreatedTs)
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to create ritual summary")
	}
	return create, nil
}

func (d *DB) ListRitualSummaries(ctx context.Context, find *store.FindRitualSummary) ([]*store.RitualSummary, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.Type != nil {
		where, args = append(where, "ritual_type = ?"), append(args, *find.Type)
	}

	query := `SELECT id, user_id, ritual_type, summary, goals_reviewed, accomplishments, intentions, growth_highlights, mood_trend, period_start, period_end, created_ts
		FROM ritual_summary
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, rowid DESC`
	if find.Limit != nil {
		query += ` LIMIT ?`
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ritual summaries")
	}
	defer rows.Close()

	list := make([]*store.RitualSummary, 0)
	for rows.Next() {
		r := &store.RitualSummary{}
		var goals, accomplishments, intentions, growth string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Type, &r.Summary, &goals, &accomplishments, &intentions, &growth, &r.MoodTrend, &r.PeriodStart, &r.PeriodEnd, &r.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan ritual summary")
		}
		for _, pair := range []struct {
			raw  string
			dest *[]string
		}{
			{goals, &r.GoalsReviewed},
			{accomplishments, &r.Accomplishments},
			{intentions, &r.Intentions},
			{growth, &r.GrowthHighlights},
		} {
			if err := json.Unmarshal([]byte(pair.raw), pair.dest); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal ritual list")
			}
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate ritual summaries")
	}
	return list, nil
}
