package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/echomind/store"
)

const insightColumns = `id, user_id, insight_type, title, message, priority, is_surfaced, is_dismissed, created_ts`

// UpsertProactiveInsight keeps an existing row untouched and returns it.
func (d *DB) UpsertProactiveInsight(ctx context.Context, upsert *store.ProactiveInsight) (*store.ProactiveInsight, error) {
	stmt := `INSERT INTO proactive_insight (` + insightColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.ID,
		upsert.UserID,
		upsert.Type,
		upsert.Title,
		upsert.Message,
		upsert.Priority,
		boolToInt(upsert.IsSurfaced || upsert.IsDismissed),
		boolToInt(upsert.IsDismissed),
		upsert.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert proactive insight")
	}

	row := d.db.QueryRowContext(ctx, `SELECT `+insightColumns+` FROM proactive_insight WHERE id = ?`, upsert.ID)
	insight, err := scanInsight(row)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load proactive insight")
	}
	if insight.UserID != upsert.UserID {
		return nil, errors.Errorf("proactive insight %s belongs to another user", upsert.ID)
	}
	return insight, nil
}

func (d *DB) ListProactiveInsights(ctx context.Context, find *store.FindProactiveInsight) ([]*store.ProactiveInsight, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.Type != nil {
		where, args = append(where, "insight_type = ?"), append(args, *find.Type)
	}
	if find.IsDismissed != nil {
		where, args = append(where, "is_dismissed = ?"), append(args, boolToInt(*find.IsDismissed))
	}
	if find.CreatedTsAfter != nil {
		where, args = append(where, "created_ts >= ?"), append(args, *find.CreatedTsAfter)
	}

	query := `SELECT ` + insightColumns + ` FROM proactive_insight WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, rowid DESC`
	if find.Limit != nil {
		query += ` LIMIT ?`
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list proactive insights")
	}
	defer rows.Close()

	list := make([]*store.ProactiveInsight, 0)
	for rows.Next() {
		insight, err := scanInsight(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan proactive insight")
		}
		list = append(list, insight)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate proactive insights")
	}
	return list, nil
}

// UpdateProactiveInsight only sets flags, so repeating it is harmless.
func (d *DB) UpdateProactiveInsight(ctx context.Context, update *store.UpdateProactiveInsight) error {
	set := []string{}
	if update.Surface || update.Dismiss {
		set = append(set, "is_surfaced = 1")
	}
	if update.Dismiss {
		set = append(set, "is_dismissed = 1")
	}
	if len(set) == 0 {
		return errors.New("no fields to update")
	}

	result, err := d.db.ExecContext(ctx,
		`UPDATE proactive_insight SET `+strings.Join(set, ", ")+` WHERE id = ? AND user_id = ?`,
		update.ID, update.UserID)
	if err != nil {
		return errors.Wrap(err, "failed to update proactive insight")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInsight(row rowScanner) (*store.ProactiveInsight, error) {
	insight := &store.ProactiveInsight{}
	var surfaced, dismissed int
	if err := row.Scan(
		&insight.ID,
		&insight.UserID,
		&insight.Type,
		&insight.Title,
		&insight.Message,
		&insight.Priority,
		&surfaced,
		&dismissed,
		&insight.CreatedTs,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	insight.IsSurfaced = surfaced != 0
	insight.IsDismissed = dismissed != 0
	return insight, nil
}
