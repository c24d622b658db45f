package models

// ChatMessage is one turn in a mentor conversation.
type ChatMessage struct {
	Role      string `json:"role"` // "user" or "mentor"
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"` // RFC3339
}

// ChatThread is a saved mentor conversation.
type ChatThread struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	UpdatedAt string        `json:"updated_at"` // RFC3339
}

type MentorAskRequest struct {
	ThreadID string `json:"thread_id,omitempty"`
	Message  string `json:"message" validate:"required,min=1"`
}

type MentorAskResponse struct {
	ThreadID string      `json:"thread_id"`
	Reply    ChatMessage `json:"reply"`
}
