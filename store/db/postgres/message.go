package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hrygo/echomind/store"
)

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	var payload sql.NullString
	if create.EmotionPayload != nil {
		bytes, err := json.Marshal(create.EmotionPayload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal emotion payload: %w", err)
		}
		payload = sql.NullString{String: string(bytes), Valid: true}
	}

	fields := []string{"uid", "conversation_id", "creator_id", "role", "content", "emotion", "emotion_payload", "created_ts"}
	args := []any{create.UID, create.ConversationID, create.CreatorID, create.Role, create.Content, create.Emotion, payload, create.CreatedTs}
	stmt := `INSERT INTO message (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return create, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *find.ConversationID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *find.CreatorID)
	}
	if find.Role != nil {
		where, args = append(where, "role = "+placeholder(len(args)+1)), append(args, string(*find.Role))
	}
	if find.CreatedTsAfter != nil {
		where, args = append(where, "created_ts >= "+placeholder(len(args)+1)), append(args, *find.CreatedTsAfter)
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
		query += ` LIMIT ` + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Message, 0)
	for rows.Next() {
		m := &store.Message{}
		var emotion sql.NullString
		var payload []byte
		if err := rows.Scan(&m.ID, &m.UID, &m.ConversationID, &m.CreatorID, &m.Role, &m.Content, &emotion, &payload, &m.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if emotion.Valid {
			m.Emotion = &emotion.String
		}
		if len(payload) > 0 {
			m.EmotionPayload = &store.MessageEmotion{}
			if err := json.Unmarshal(payload, m.EmotionPayload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal emotion payload: %w", err)
			}
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return list, nil
}
