package store

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a targeted row does not exist.
var ErrNotFound = errors.New("not found")

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates missing tables. Safe to call on every start.
	Migrate(ctx context.Context) error

	// Conversation model related methods.
	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error)
	DeleteConversation(ctx context.Context, delete *DeleteConversation) error

	// Message model related methods.
	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)

	// ProactiveInsight model related methods.
	UpsertProactiveInsight(ctx context.Context, upsert *ProactiveInsight) (*ProactiveInsight, error)
	ListProactiveInsights(ctx context.Context, find *FindProactiveInsight) ([]*ProactiveInsight, error)
	UpdateProactiveInsight(ctx context.Context, update *UpdateProactiveInsight) error

	// RitualSummary model related methods.
	CreateRitualSummary(ctx context.Context, create *RitualSummary) (*RitualSummary, error)
	ListRitualSummaries(ctx context.Context, find *FindRitualSummary) ([]*RitualSummary, error)

	// UserSetting model related methods.
	GetUserSetting(ctx context.Context, userID int32) (*UserSetting, error)
	UpsertUserSetting(ctx context.Context, upsert *UserSetting) (*UserSetting, error)
}
