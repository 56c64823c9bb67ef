// Package conversation owns the per-user conversation session: the active
// conversation pointer, its ordered message list, title derivation and the chat turn.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hrygo/echomind/ai/emotion"
	"github.com/hrygo/echomind/store"
)

// ErrStaleConversation is returned when the active conversation changed while a
// classification or reply was in flight. The late result is discarded.
var ErrStaleConversation = errors.New("active conversation changed")

// TitleMaxRunes is the length of a derived conversation title before the ellipsis.
const TitleMaxRunes = 50

// Store is the persistence the session needs.
type Store interface {
	CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error)
	GetConversation(ctx context.Context, find *store.FindConversation) (*store.Conversation, error)
	ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error)
	UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error)
	DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error
	CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error)
	ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error)
	GetUserSetting(ctx context.Context, userID int32) (*store.UserSetting, error)
	UpsertUserSetting(ctx context.Context, upsert *store.UserSetting) (*store.UserSetting, error)
}

// Classifier reads the emotional state of a message. It never fails.
type Classifier interface {
	Classify(ctx context.Context, text string) emotion.Classification
}

// Session is one user's view of their conversations. All mutations of the
// active conversation happen under mu, so the first-user-message check and the
// title write cannot interleave with another AddMessage.
type Session struct {
	mu sync.Mutex

	store      Store
	classifier Classifier
	responder  Responder
	now        func() time.Time

	userID   int32
	active   *store.Conversation
	messages []*store.Message
	settings *store.UserSetting
	lastTs   int64
}

type Option func(*Session)

func WithClassifier(c Classifier) Option {
	return func(s *Session) { s.classifier = c }
}

func WithResponder(r Responder) Option {
	return func(s *Session) { s.responder = r }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates a session for userID. userID 0 is an anonymous session
// on which every operation is a no-op.
func NewSession(userID int32, s Store, opts ...Option) *Session {
	session := &Session{
		store:  s,
		userID: userID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(session)
	}
	return session
}

func (s *Session) UserID() int32 {
	return s.userID
}

// Active returns copies of the active conversation and its messages.
func (s *Session) Active() (*store.Conversation, []*store.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil, nil
	}
	conv := *s.active
	messages := make([]*store.Message, len(s.messages))
	copy(messages, s.messages)
	return &conv, messages
}

// tick returns a millisecond timestamp strictly greater than any this session issued before.
func (s *Session) tick() int64 {
	ts := s.now().UnixMilli()
	if ts <= s.lastTs {
		ts = s.lastTs + 1
	}
	s.lastTs = ts
	return ts
}

// CreateConversation inserts a conversation and makes it active. A nil title is
// derived later from the first user message.
func (s *Session) CreateConversation(ctx context.Context, title *string) (*store.Conversation, error) {
	if s.userID == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.tick()
	conv, err := s.store.CreateConversation(ctx, &store.Conversation{
		CreatorID: s.userID,
		Title:     title,
		CreatedTs: ts,
		UpdatedTs: ts,
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	s.active = conv
	s.messages = []*store.Message{}
	copied := *conv
	return &copied, nil
}

// SelectConversation makes the conversation active and returns its messages in
// creation order. The session stays locked for the reads so a concurrent
// AddMessage lands after the snapshot, not inside it.
func (s *Session) SelectConversation(ctx context.Context, id int32) ([]*store.Message, error) {
	if s.userID == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.store.GetConversation(ctx, &store.FindConversation{ID: &id, CreatorID: &s.userID})
	if err != nil {
		return nil, fmt.Errorf("get conversation %d: %w", id, err)
	}
	messages, err := s.store.ListMessages(ctx, &store.FindMessage{ConversationID: &id})
	if err != nil {
		return nil, fmt.Errorf("list messages of conversation %d: %w", id, err)
	}

	s.active = conv
	s.messages = messages
	if conv.UpdatedTs > s.lastTs {
		s.lastTs = conv.UpdatedTs
	}

	out := make([]*store.Message, len(messages))
	copy(out, messages)
	return out, nil
}

// AddMessage appends a message to the active conversation. Without an active
// conversation or an owner it does nothing and returns (nil, nil).
func (s *Session) AddMessage(ctx context.Context, role store.MessageRole, content string, classification *emotion.Classification) (*store.Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid message role %q", role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == 0 || s.active == nil {
		return nil, nil
	}
	return s.addMessageLocked(ctx, role, content, classification)
}

func (s *Session) addMessageLocked(ctx context.Context, role store.MessageRole, content string, classification *emotion.Classification) (*store.Message, error) {
	ts := s.tick()
	create := &store.Message{
		ConversationID: s.active.ID,
		CreatorID:      s.userID,
		Role:           role,
		Content:        content,
		CreatedTs:      ts,
	}
	if classification != nil {
		label := string(classification.Emotion)
		create.Emotion = &label
		create.EmotionPayload = classification.ToStore()
	}

	title := s.pendingTitleLocked(role, content)

	msg, err := s.store.CreateMessage(ctx, create)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	s.messages = append(s.messages, msg)

	update := &store.UpdateConversation{ID: s.active.ID, UpdatedTs: &ts, Title: title}
	conv, err := s.store.UpdateConversation(ctx, update)
	if err != nil {
		// The message is durable; the conversation keeps its last known-good title and timestamp.
		slog.Error("failed to bump conversation", "conversation_id", s.active.ID, "error", err)
		return msg, fmt.Errorf("update conversation %d: %w", s.active.ID, err)
	}
	s.active = conv
	return msg, nil
}

// pendingTitleLocked returns the title a user message should write, or nil.
// While the conversation is untitled the title comes from the first user
// message with visible text, so a failed title write is retried on the next
// user message and a blank first message does not leave an empty title.
func (s *Session) pendingTitleLocked(role store.MessageRole, content string) *string {
	if role != store.MessageRoleUser || s.active.Title != nil {
		return nil
	}
	source := content
	for _, m := range s.messages {
		if m.Role == store.MessageRoleUser && strings.TrimSpace(m.Content) != "" {
			source = m.Content
			break
		}
	}
	title := DeriveTitle(source)
	if title == "" {
		return nil
	}
	return &title
}

// DeleteConversation removes a conversation with its messages and clears the
// active state if it was the active one.
func (s *Session) DeleteConversation(ctx context.Context, id int32) error {
	if s.userID == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteConversation(ctx, &store.DeleteConversation{ID: id, CreatorID: &s.userID}); err != nil {
		return fmt.Errorf("delete conversation %d: %w", id, err)
	}
	if s.active != nil && s.active.ID == id {
		s.active = nil
		s.messages = nil
	}
	return nil
}

// ListConversations returns the user's conversations, most recently updated first.
func (s *Session) ListConversations(ctx context.Context) ([]*store.Conversation, error) {
	if s.userID == 0 {
		return []*store.Conversation{}, nil
	}
	return s.store.ListConversations(ctx, &store.FindConversation{CreatorID: &s.userID})
}

// Settings loads the user's settings on first use and returns a copy.
func (s *Session) Settings(ctx context.Context) (*store.UserSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settingsLocked(ctx)
}

func (s *Session) settingsLocked(ctx context.Context) (*store.UserSetting, error) {
	if s.settings == nil {
		if s.userID == 0 {
			return store.DefaultUserSetting(0), nil
		}
		setting, err := s.store.GetUserSetting(ctx, s.userID)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		s.settings = setting
	}
	copied := *s.settings
	return &copied, nil
}

// UpdateSettings writes the settings through the store and replaces the session copy.
func (s *Session) UpdateSettings(ctx context.Context, setting *store.UserSetting) (*store.UserSetting, error) {
	if s.userID == 0 {
		return nil, nil
	}
	setting.UserID = s.userID
	saved, err := s.store.UpsertUserSetting(ctx, setting)
	if err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *saved
	s.settings = &copied
	return saved, nil
}
