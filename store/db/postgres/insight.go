package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/echomind/store"
)

const insightColumns = `id, user_id, insight_type, title, message, priority, is_surfaced, is_dismissed, created_ts`

func (d *DB) UpsertProactiveInsight(ctx context.Context, upsert *store.ProactiveInsight) (*store.ProactiveInsight, error) {
	stmt := `INSERT INTO proactive_insight (` + insightColumns + `)
		VALUES (` + placeholders(9) + `)
		ON CONFLICT (id) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.ID,
		upsert.UserID,
		upsert.Type,
		upsert.Title,
		upsert.Message,
		string(upsert.Priority),
		upsert.IsSurfaced || upsert.IsDismissed,
		upsert.IsDismissed,
		upsert.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert proactive insight: %w", err)
	}

	insight := &store.ProactiveInsight{}
	err := d.db.QueryRowContext(ctx, `SELECT `+insightColumns+` FROM proactive_insight WHERE id = `+placeholder(1), upsert.ID).Scan(
		&insight.ID, &insight.UserID, &insight.Type, &insight.Title, &insight.Message,
		&insight.Priority, &insight.IsSurfaced, &insight.IsDismissed, &insight.CreatedTs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load proactive insight: %w", err)
	}
	if insight.UserID != upsert.UserID {
		return nil, fmt.Errorf("proactive insight %s belongs to another user", upsert.ID)
	}
	return insight, nil
}

func (d *DB) ListProactiveInsights(ctx context.Context, find *store.FindProactiveInsight) ([]*store.ProactiveInsight, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.Type != nil {
		where, args = append(where, "insight_type = "+placeholder(len(args)+1)), append(args, *find.Type)
	}
	if find.IsDismissed != nil {
		where, args = append(where, "is_dismissed = "+placeholder(len(args)+1)), append(args, *find.IsDismissed)
	}
	if find.CreatedTsAfter != nil {
		where, args = append(where, "created_ts >= "+placeholder(len(args)+1)), append(args, *find.CreatedTsAfter)
	}

	query := `SELECT ` + insightColumns + ` FROM proactive_insight
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, seq DESC`
	if find.Limit != nil {
		query += ` LIMIT ` + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list proactive insights: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ProactiveInsight, 0)
	for rows.Next() {
		insight := &store.ProactiveInsight{}
		if err := rows.Scan(
			&insight.ID, &insight.UserID, &insight.Type, &insight.Title, &insight.Message,
			&insight.Priority, &insight.IsSurfaced, &insight.IsDismissed, &insight.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan proactive insight: %w", err)
		}
		list = append(list, insight)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate proactive insights: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateProactiveInsight(ctx context.Context, update *store.UpdateProactiveInsight) error {
	set := []string{}
	if update.Surface || update.Dismiss {
		set = append(set, "is_surfaced = TRUE")
	}
	if update.Dismiss {
		set = append(set, "is_dismissed = TRUE")
	}
	if len(set) == 0 {
		return fmt.Errorf("no fields to update")
	}

	result, err := d.db.ExecContext(ctx,
		`UPDATE proactive_insight SET `+strings.Join(set, ", ")+` WHERE id = `+placeholder(1)+` AND user_id = `+placeholder(2),
		update.ID, update.UserID)
	if err != nil {
		return fmt.Errorf("failed to update proactive insight: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}
