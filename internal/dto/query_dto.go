package dto

type QueryHistoryItem struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content"`
	Sender  string `json:"sender,omitempty"`
}

type QueryRequest struct {
	Query       string             `json:"query" validate:"required,max=8000"`
	WorkspaceId string             `json:"workspace_id" validate:"required"`
	ThreadId    string             `json:"thread_id" validate:"required"`
	History     []QueryHistoryItem `json:"history" validate:"max=100,dive"`
}

type SourceResponse struct {
	Id      string  `json:"id"`
	Score   float32 `json:"score"`
	Content string  `json:"content"`
}

type QueryResponse struct {
	Answer  string            `json:"answer"`
	Sources []*SourceResponse `json:"sources"`
}
