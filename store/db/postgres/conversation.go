package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hrygo/echomind/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	fields := []string{"uid", "creator_id", "title", "created_ts", "updated_ts"}
	args := []any{create.UID, create.CreatorID, create.Title, create.CreatedTs, create.UpdatedTs}
	stmt := `INSERT INTO conversation (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return create, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *find.CreatorID)
	}

	query := `SELECT id, uid, creator_id, title, created_ts, updated_ts
		FROM conversation
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC, id DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Conversation, 0)
	for rows.Next() {
		c := &store.Conversation{}
		var title sql.NullString
		if err := rows.Scan(&c.ID, &c.UID, &c.CreatorID, &title, &c.CreatedTs, &c.UpdatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		if title.Valid {
			c.Title = &title.String
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	set, args := []string{}, []any{}

	if update.Title != nil {
		set, args = append(set, "title = COALESCE(title, "+placeholder(len(args)+1)+")"), append(args, *update.Title)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	args = append(args, update.ID)
	stmt := `UPDATE conversation SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, creator_id, title, created_ts, updated_ts`
	c := &store.Conversation{}
	var title sql.NullString
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&c.ID, &c.UID, &c.CreatorID, &title, &c.CreatedTs, &c.UpdatedTs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	if title.Valid {
		c.Title = &title.String
	}
	return c, nil
}

func (d *DB) DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error {
	// message rows go with ON DELETE CASCADE
	where, args := []string{"id = " + placeholder(1)}, []any{delete.ID}
	if delete.CreatorID != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *delete.CreatorID)
	}
	result, err := d.db.ExecContext(ctx, `DELETE FROM conversation WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}
