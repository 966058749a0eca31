package mapper

import (
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/model"
)

type WorkspaceMapper struct{}

func NewWorkspaceMapper() *WorkspaceMapper {
	return &WorkspaceMapper{}
}

func (m *WorkspaceMapper) ToEntity(w *model.Workspace) *entity.Workspace {
	if w == nil {
		return nil
	}
	return &entity.Workspace{
		Id:         w.Id,
		OwnerId:    w.OwnerId,
		Name:       w.Name,
		IsPersonal: w.IsPersonal,
		CreatedAt:  w.CreatedAt,
	}
}

func (m *WorkspaceMapper) ToModel(w *entity.Workspace) *model.Workspace {
	if w == nil {
		return nil
	}
	return &model.Workspace{
		Id:         w.Id,
		OwnerId:    w.OwnerId,
		Name:       w.Name,
		IsPersonal: w.IsPersonal,
		CreatedAt:  w.CreatedAt,
	}
}

func (m *WorkspaceMapper) ThreadToEntity(t *model.Thread) *entity.Thread {
	if t == nil {
		return nil
	}
	return &entity.Thread{
		Id:          t.Id,
		WorkspaceId: t.WorkspaceId,
		Title:       t.Title,
		CreatedAt:   t.CreatedAt,
	}
}

func (m *WorkspaceMapper) ThreadToModel(t *entity.Thread) *model.Thread {
	if t == nil {
		return nil
	}
	return &model.Thread{
		Id:          t.Id,
		WorkspaceId: t.WorkspaceId,
		Title:       t.Title,
		CreatedAt:   t.CreatedAt,
	}
}

func (m *WorkspaceMapper) ProfileToEntity(u *model.UserProfile) *entity.Profile {
	if u == nil {
		return nil
	}
	return &entity.Profile{
		Id:           u.Id,
		Email:        u.Email,
		FullName:     u.FullName,
		Username:     u.Username,
		ProfileImage: u.ProfileImage,
		IsPrivate:    u.IsPrivate,
	}
}
