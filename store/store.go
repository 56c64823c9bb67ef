package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/echomind/internal/profile"
	"github.com/hrygo/echomind/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	userSettingCache *cache.LRU[int32, *UserSetting]
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
		userSettingCache: cache.New[int32, *UserSetting](cache.Config{
			DefaultTTL: 10 * time.Minute,
			MaxItems:   1000,
		}),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversation returns ErrNotFound when no row matches.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

func (s *Store) UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error) {
	return s.driver.UpdateConversation(ctx, update)
}

// DeleteConversation removes the conversation and all of its messages.
func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	return s.driver.DeleteConversation(ctx, delete)
}

func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	return s.driver.CreateMessage(ctx, create)
}

func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

// UpsertProactiveInsight inserts the insight unless its id already exists and
// returns the stored row, so lifecycle flags already persisted are kept.
func (s *Store) UpsertProactiveInsight(ctx context.Context, upsert *ProactiveInsight) (*ProactiveInsight, error) {
	if upsert.ID == "" {
		upsert.ID = uuid.NewString()
	}
	upsert.Priority = NormalizeInsightPriority(string(upsert.Priority))
	return s.driver.UpsertProactiveInsight(ctx, upsert)
}

func (s *Store) ListProactiveInsights(ctx context.Context, find *FindProactiveInsight) ([]*ProactiveInsight, error) {
	return s.driver.ListProactiveInsights(ctx, find)
}

func (s *Store) UpdateProactiveInsight(ctx context.Context, update *UpdateProactiveInsight) error {
	return s.driver.UpdateProactiveInsight(ctx, update)
}

func (s *Store) CreateRitualSummary(ctx context.Context, create *RitualSummary) (*RitualSummary, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	return s.driver.CreateRitualSummary(ctx, create)
}

func (s *Store) ListRitualSummaries(ctx context.Context, find *FindRitualSummary) ([]*RitualSummary, error) {
	return s.driver.ListRitualSummaries(ctx, find)
}

// GetUserSetting returns the stored setting or the defaults when none was saved.
func (s *Store) GetUserSetting(ctx context.Context, userID int32) (*UserSetting, error) {
	if cached, ok := s.userSettingCache.Get(userID); ok {
		copied := *cached
		return &copied, nil
	}

	setting, err := s.driver.GetUserSetting(ctx, userID)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		setting = DefaultUserSetting(userID)
	}
	s.userSettingCache.Set(userID, setting)
	copied := *setting
	return &copied, nil
}

func (s *Store) UpsertUserSetting(ctx context.Context, upsert *UserSetting) (*UserSetting, error) {
	if upsert.Persona == "" {
		upsert.Persona = DefaultPersona
	}
	setting, err := s.driver.UpsertUserSetting(ctx, upsert)
	if err != nil {
		s.userSettingCache.Delete(upsert.UserID)
		return nil, err
	}
	s.userSettingCache.Set(setting.UserID, setting)
	copied := *setting
	return &copied, nil
}
