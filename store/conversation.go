package store

// Conversation is a titled thread of messages owned by one user.
// Title stays nil until the first user message derives it.
type Conversation struct {
	UID       string
	Title     *string
	CreatedTs int64
	UpdatedTs int64
	ID        int32
	CreatorID int32
}

type FindConversation struct {
	ID        *int32
	UID       *string
	CreatorID *int32
}

// UpdateConversation changes a conversation. Title is set once: drivers only
// write it while the stored title is NULL.
type UpdateConversation struct {
	Title     *string
	UpdatedTs *int64
	ID        int32
}

type DeleteConversation struct {
	ID        int32
	CreatorID *int32
}
