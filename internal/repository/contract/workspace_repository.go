package contract

import (
	"context"

	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/repository/specification"
)

type WorkspaceRepository interface {
	Create(ctx context.Context, workspace *entity.Workspace) error
	// CreateIfAbsent inserts with ON CONFLICT DO NOTHING and reports whether
	// this call created the row.
	CreateIfAbsent(ctx context.Context, workspace *entity.Workspace) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Workspace, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Workspace, error)
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, workspaceID, userID string) error
	IsMember(ctx context.Context, workspaceID, userID string) (bool, error)
	ListMembers(ctx context.Context, workspaceID string) ([]string, error)
	DeleteMembers(ctx context.Context, workspaceID string) error
}

type ThreadRepository interface {
	Create(ctx context.Context, thread *entity.Thread) error
	FindOne(ctx context.Context, workspaceID, threadID string) (*entity.Thread, error)
	FindByWorkspace(ctx context.Context, workspaceID string) ([]*entity.Thread, error)
	Delete(ctx context.Context, workspaceID, threadID string) error
	DeleteByWorkspace(ctx context.Context, workspaceID string) error
}
