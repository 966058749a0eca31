package store

// Document is one retrieved context item handed to the prompt assembler
type Document struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"content"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Turn is a single chat history line as the prompt assembler sees it. User
// turns carry the (possibly masked) sender name; assistant turns do not.
type Turn struct {
	Role     string `json:"role"`
	Sender   string `json:"sender,omitempty"`
	SenderID string `json:"sender_id,omitempty"`
	Content  string `json:"content"`
}

// ReplyContext is the message a user replied to.
type ReplyContext struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}
