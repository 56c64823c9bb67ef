package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/echomind/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	fields := []string{"uid", "creator_id", "title", "created_ts", "updated_ts"}
	args := []any{create.UID, create.CreatorID, create.Title, create.CreatedTs, create.UpdatedTs}
	stmt := `INSERT INTO conversation (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create conversation")
	}
	return create, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = ?"), append(args, *find.CreatorID)
	}

	query := `SELECT id, uid, creator_id, title, created_ts, updated_ts
		FROM conversation
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC, id DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversations")
	}
	defer rows.Close()

	list := make([]*store.Conversation, 0)
	for rows.Next() {
		c := &store.Conversation{}
		var title sql.NullString
		if err := rows.Scan(&c.ID, &c.UID, &c.CreatorID, &title, &c.CreatedTs, &c.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation")
		}
		if title.Valid {
			c.Title = &title.String
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate conversations")
	}
	return list, nil
}

func (d *DB) UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	set, args := []string{}, []any{}

	if update.Title != nil {
		set, args = append(set, "title = COALESCE(title, ?)"), append(args, *update.Title)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}

	args = append(args, update.ID)
	stmt := `UPDATE conversation SET ` + strings.Join(set, ", ") + ` WHERE id = ? RETURNING id, uid, creator_id, title, created_ts, updated_ts`
	c := &store.Conversation{}
	var title sql.NullString
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&c.ID, &c.UID, &c.CreatorID, &title, &c.CreatedTs, &c.UpdatedTs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to update conversation")
	}
	if title.Valid {
		c.Title = &title.String
	}
	return c, nil
}

// DeleteConversation removes the messages and the conversation in one transaction.
func (d *DB) DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	where, args := []string{"id = ?"}, []any{delete.ID}
	if delete.CreatorID != nil {
		where, args = append(where, "creator_id = ?"), append(args, *delete.CreatorID)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM conversation WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return errors.Wrap(err, "failed to delete conversation")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM message WHERE conversation_id = ?`, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete conversation messages")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit conversation delete")
	}
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
