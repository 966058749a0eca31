package controller

import (
	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/serverutils"
	"nexus-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IGroupController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	CreateChat(ctx *fiber.Ctx) error
	Join(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	DeleteChat(ctx *fiber.Ctx) error
}

type groupController struct {
	service service.IWorkspaceService
}

func NewGroupController(service service.IWorkspaceService) IGroupController {
	return &groupController{service: service}
}

func (c *groupController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/groups")
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Post(":id/chats", c.CreateChat)
	h.Post(":id/join", c.Join)
	h.Delete(":id", c.Delete)
	h.Delete(":id/chats/:chat_id", c.DeleteChat)
}

func toChatResponse(t *entity.Thread) *dto.ChatResponse {
	return &dto.ChatResponse{Id: t.Id, Title: t.Title, CreatedAt: t.CreatedAt}
}

func toGroupResponse(w *entity.Workspace) *dto.GroupResponse {
	chats := make([]*dto.ChatResponse, 0, len(w.Threads))
	for _, t := range w.Threads {
		chats = append(chats, toChatResponse(t))
	}
	members := w.Members
	if members == nil {
		members = []string{}
	}
	return &dto.GroupResponse{
		Id:         w.Id,
		Name:       w.Name,
		OwnerId:    w.OwnerId,
		IsPersonal: w.IsPersonal,
		Members:    members,
		Chats:      chats,
	}
}

func (c *groupController) List(ctx *fiber.Ctx) error {
	groups, err := c.service.ListForUser(ctx.UserContext(), serverutils.UserID(ctx))
	if err != nil {
		return err
	}

	res := make([]*dto.GroupResponse, 0, len(groups))
	for _, g := range groups {
		res = append(res, toGroupResponse(g))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get groups", res))
}

func (c *groupController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateGroupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ws, err := c.service.Create(ctx.UserContext(), serverutils.UserID(ctx), req.Name)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create group", toGroupResponse(ws)))
}

func (c *groupController) CreateChat(ctx *fiber.Ctx) error {
	var req dto.CreateChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	thread, err := c.service.CreateThread(ctx.UserContext(), ctx.Params("id"), serverutils.UserID(ctx), req.Title)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create chat", toChatResponse(thread)))
}

func (c *groupController) Join(ctx *fiber.Ctx) error {
	ws, err := c.service.Join(ctx.UserContext(), ctx.Params("id"), serverutils.UserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success join group", toGroupResponse(ws)))
}

func (c *groupController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.Delete(ctx.UserContext(), ctx.Params("id"), serverutils.UserID(ctx)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete group", nil))
}

func (c *groupController) DeleteChat(ctx *fiber.Ctx) error {
	err := c.service.DeleteThread(ctx.UserContext(), ctx.Params("id"), ctx.Params("chat_id"), serverutils.UserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete chat", nil))
}
