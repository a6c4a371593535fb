package domain

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one transcript entry. Order is conversation order and the
// whole slice is replayed to the model on every turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ReplyOption is one of the four candidate answers offered to the patient
// after each assistant turn. Never persisted.
type ReplyOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	Emoji string `json:"emoji"`
}
