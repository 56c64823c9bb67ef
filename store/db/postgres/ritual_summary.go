package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hrygo/echomind/store"
)

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func (d *DB) CreateRitualSummary(ctx context.Context, create *store.RitualSummary) (*store.RitualSummary, error) {
	fields := []string{"id", "user_id", "ritual_type", "summary", "goals_reviewed", "accomplishments", "intentions", "growth_highlights", "mood_trend", "period_start", "period_end", "created_ts"}
	args := []any{
		create.ID,
		create.UserID,
		string(create.Type),
		create.Summary,
		pq.Array(nonNil(create.GoalsReviewed)),
		pq.Array(nonNil(create.Accomplishments)),
		pq.Array(nonNil(create.Intentions)),
		pq.Array(nonNil(create.GrowthHighlights)),
		create.MoodTrend,
		create.PeriodStart,
		create.PeriodEnd,
		create.CreatedTs,
	}
	stmt := `INSERT INTO ritual_summary (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to create ritual summary: %w", err)
	}
	return create, nil
}

func (d *DB) ListRitualSummaries(ctx context.Context, find *store.FindRitualSummary) ([]*store.RitualSummary, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.Type != nil {
		where, args = append(where, "ritual_type = "+placeholder(len(args)+1)), append(args, string(*find.Type))
	}

	query := `SELECT id, user_id, ritual_type, summary, goals_reviewed, accomplishments, intentions, growth_highlights, mood_trend, period_start, period_end, created_ts
		FROM ritual_summary
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, seq DESC`
	if find.Limit != nil {
		query += ` LIMIT ` + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ritual summaries: %w", err)
	}
	defer rows.Close()

	list := make([]*store.RitualSummary, 0)
	for rows.Next() {
		r := &store.RitualSummary{}
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.Type, &r.Summary,
			pq.Array(&r.GoalsReviewed),
			pq.Array(&r.Accomplishments),
			pq.Array(&r.Intentions),
			pq.Array(&r.GrowthHighlights),
			&r.MoodTrend, &r.PeriodStart, &r.PeriodEnd, &r.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ritual summary: %w", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ritual summaries: %w", err)
	}
	return list, nil
}
