package conversation

import (
	"context"
	"fmt"

	"github.com/hrygo/echomind/ai/emotion"
	"github.com/hrygo/echomind/store"
)

// Turn is one user message and the assistant reply to it.
type Turn struct {
	User      *store.Message
	Assistant *store.Message
	Emotion   emotion.Classification
}

// Send runs a full chat turn on the active conversation: classify the text,
// store it with its emotion, generate a reply and store that too.
//
// A turn without an active conversation or owner is a no-op. If the session
// switches conversation while the classifier or the reply is in flight, the
// late result is dropped and ErrStaleConversation returned. A failed reply
// leaves the user message stored and returns it with the error.
func (s *Session) Send(ctx context.Context, content string) (*Turn, error) {
	s.mu.Lock()
	if s.userID == 0 || s.active == nil {
		s.mu.Unlock()
		return nil, nil
	}
	conversationID := s.active.ID
	setting, err := s.settingsLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	classification := emotion.Default()
	tagged := setting.EmotionTagging && s.classifier != nil
	if tagged {
		classification = s.classifier.Classify(ctx, content)
	}

	s.mu.Lock()
	if s.active == nil || s.active.ID != conversationID {
		s.mu.Unlock()
		return nil, ErrStaleConversation
	}
	var attached *emotion.Classification
	if tagged {
		attached = &classification
	}
	userMsg, err := s.addMessageLocked(ctx, store.MessageRoleUser, content, attached)
	history := make([]*store.Message, len(s.messages))
	copy(history, s.messages)
	s.mu.Unlock()
	turn := &Turn{User: userMsg, Emotion: classification}
	if err != nil {
		return turn, err
	}

	if s.responder == nil {
		return turn, nil
	}
	reply, err := s.responder.Reply(ctx, ReplyRequest{
		UserID:  s.userID,
		Mode:    classification.ResponseMode,
		Persona: setting.Persona,
		History: history,
	})
	if err != nil {
		return turn, fmt.Errorf("generate reply: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.ID != conversationID {
		return turn, ErrStaleConversation
	}
	turn.Assistant, err = s.addMessageLocked(ctx, store.MessageRoleAssistant, reply, nil)
	return turn, err
}
