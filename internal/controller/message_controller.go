package controller

import (
	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/serverutils"
	"nexus-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMessageController interface {
	RegisterRoutes(r fiber.Router)
	History(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
}

type messageController struct {
	messages service.IMessageService
	profiles service.IProfileDirectory
}

func NewMessageController(messages service.IMessageService, profiles service.IProfileDirectory) IMessageController {
	return &messageController{messages: messages, profiles: profiles}
}

func (c *messageController) RegisterRoutes(r fiber.Router) {
	r.Get("/history", c.History)
	r.Get("/messages/:workspace_id/:thread_id", c.Messages)
}

// History is the compact transcript the query endpoint accepts back as history.
func (c *messageController) History(ctx *fiber.Ctx) error {
	var req dto.HistoryRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	msgs, err := c.messages.Range(ctx.UserContext(), serverutils.UserID(ctx), req.WorkspaceId, req.ThreadId, nil)
	if err != nil {
		return err
	}

	res := make([]dto.HistoryItemResponse, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, dto.HistoryItemResponse{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt})
	}
	return ctx.JSON(res)
}

func (c *messageController) Messages(ctx *fiber.Ctx) error {
	viewerID := serverutils.UserID(ctx)
	msgs, err := c.messages.Range(ctx.UserContext(), viewerID, ctx.Params("workspace_id"), ctx.Params("thread_id"), nil)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == "user" {
			ids = append(ids, m.SenderId)
		}
	}
	profiles := c.profiles.Profiles(ctx.UserContext(), ids)

	res := make([]*dto.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, toMessageResponse(m, profiles[m.SenderId], viewerID))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func toMessageResponse(m *entity.Message, profile *entity.Profile, viewerID string) *dto.MessageResponse {
	author := entity.Author{UserID: m.SenderId, DisplayName: m.SenderDisplayName}
	if profile != nil {
		author.Image = profile.ProfileImage
		author.IsPrivate = profile.IsPrivate
		if author.DisplayName == "" {
			author.DisplayName = profile.DisplayName()
		}
	}
	name, image := author.ViewFor(viewerID)

	res := &dto.MessageResponse{
		Id:                m.Id,
		WorkspaceId:       m.WorkspaceId,
		ThreadId:          m.ThreadId,
		Role:              m.Role,
		Content:           m.Content,
		SenderId:          m.SenderId,
		SenderDisplayName: name,
		SenderImage:       image,
		IsEdited:          m.IsEdited,
		IsDeleted:         m.DeletedGlobally,
		CreatedAt:         m.CreatedAt,
	}
	if m.ReplyTo != nil {
		res.ReplyTo = &dto.ReplyToDTO{
			Id:       m.ReplyTo.MessageId,
			SenderId: m.ReplyTo.SenderId,
			Sender:   m.ReplyTo.Sender,
			Content:  m.ReplyTo.Content,
		}
	}
	return res
}
