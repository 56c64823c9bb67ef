package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/echomind/store"
)

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	var payload sql.NullString
	if create.EmotionPayload != nil {
		bytes, err := json.Marshal(create.EmotionPayload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal emotion payload")
		}
		payload = sql.NullString{String: string(bytes), Valid: true}
	}

	stmt := `INSERT INTO message (uid, conversation_id, creator_id, role, content, emotion, emotion_payload, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.ConversationID,
		create.CreatorID,
		create.Role,
		create.Content,
		create.Emotion,
		payload,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create message")
	}
	return create, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = ?"), append(args, *find.ConversationID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = ?"), append(args, *find.CreatorID)
	}
	if find.Role != nil {
		where, args = append(where, "role = ?"), append(args, *find.Role)
	}
	if find.CreatedTsAfter != nil {
		where, args = append(where, "created_ts >= ?"), append(args, *find.CreatedTsAfter)
	}

	query := `SELECT id, uid, conversation_id, creator_id, role, content, emotion, emotion_payload, created_ts
		FROM message
		WHERE ` + strings.Join(where, " AND ")
	if find.OrderDesc {
		query += ` ORDER BY created_ts DESC, id DESC`
	} else {
		query += ` ORDER BY created_ts ASC, id ASC`
	}
	if find.Limit != nil {
		query += ` LIMIT ?`
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list messages")
	}
	defer rows.Close()

	list := make([]*store.Message, 0)
	for rows.Next() {
		m := &store.Message{}
		var emotion, payload sql.NullString
		if err := rows.Scan(&m.ID, &m.UID, &m.ConversationID, &m.CreatorID, &m.Role, &m.Content, &emotion, &payload, &m.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan message")
		}
		if emotion.Valid {
			m.Emotion = &emotion.String
		}
		if payload.Valid && payload.String != "" {
			m.EmotionPayload = &store.MessageEmotion{}
			if err := json.Unmarshal([]byte(payload.String), m.EmotionPayload); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal emotion payload")
			}
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate messages")
	}
	return list, nil
}
