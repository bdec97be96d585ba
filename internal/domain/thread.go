package domain

// Message is a single entry in a thread's timeline (user or assistant).
// Immutable once appended.
type Message struct {
	ID        MessageID `json:"id,omitempty"`
	ThreadID  ThreadID  `json:"thread_id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at,omitzero"`
}

// SystemMessage builds a prompt-only message that is never persisted.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a prompt-only user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ThreadInfo summarizes a persisted thread for listing endpoints.
type ThreadInfo struct {
	ID        ThreadID  `json:"thread_id"`
	Steps     int       `json:"steps"`
	UpdatedAt Timestamp `json:"updated_at"`
}
