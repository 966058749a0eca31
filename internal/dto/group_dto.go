package dto

import "time"

type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type CreateChatRequest struct {
	Title string `json:"title" validate:"max=255"`
}

type ChatResponse struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupResponse struct {
	Id         string          `json:"id"`
	Name       string          `json:"name"`
	OwnerId    string          `json:"owner_id"`
	IsPersonal bool            `json:"is_personal"`
	Members    []string        `json:"members"`
	Chats      []*ChatResponse `json:"chats"`
}
