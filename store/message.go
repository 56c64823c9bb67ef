package store

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

func (r MessageRole) Valid() bool {
	return r == MessageRoleUser || r == MessageRoleAssistant
}

// MessageEmotion is the persisted form of an emotion classification.
type MessageEmotion struct {
	Trigger      *string `json:"trigger,omitempty"`
	Emotion      string  `json:"emotion"`
	Polarity     string  `json:"polarity"`
	ResponseMode string  `json:"responseMode"`
	Intensity    float64 `json:"intensity"`
}

// Message is immutable once written; it is only removed with its conversation.
type Message struct {
	// Emotion is the label column, EmotionPayload the full classification.
	Emotion        *string
	EmotionPayload *MessageEmotion
	UID            string
	Role           MessageRole
	Content        string
	CreatedTs      int64
	ID             int64
	ConversationID int32
	CreatorID      int32
}

type FindMessage struct {
	ConversationID *int32
	CreatorID      *int32
	Role           *MessageRole
	CreatedTsAfter *int64
	Limit          *int
	// OrderDesc returns newest first. Default is creation order.
	OrderDesc bool
}
