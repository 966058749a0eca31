package access

import (
	"context"
	"errors"
	"strings"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/repository/specification"
	"nexus-chat-be/internal/repository/unitofwork"
)

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrNoAccess          = errors.New("no access to workspace")
)

// Verifier resolves workspace ids and checks that a user may use them
type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// ResolveWorkspaceID maps the personal marker to the caller's personal
// workspace id. Other ids pass through unchanged.
func ResolveWorkspaceID(workspaceID, userID string) string {
	if workspaceID == constant.PersonalWorkspaceMarker {
		return constant.PersonalWorkspaceID(userID)
	}
	return workspaceID
}

// IsPersonalID reports whether workspaceID is someone's personal workspace.
func IsPersonalID(workspaceID string) bool {
	return strings.HasPrefix(workspaceID, constant.PersonalWorkspacePrefix)
}

// VerifyWorkspaceAccess returns the resolved workspace id when userID owns
// or belongs to it. A personal workspace is accessible to its owner even
// before it is materialized.
func (v *Verifier) VerifyWorkspaceAccess(ctx context.Context, uow unitofwork.UnitOfWork, workspaceID, userID string) (string, error) {
	workspaceID = ResolveWorkspaceID(workspaceID, userID)

	if IsPersonalID(workspaceID) {
		if workspaceID != constant.PersonalWorkspaceID(userID) {
			return "", ErrNoAccess
		}
		return workspaceID, nil
	}

	ws, err := uow.WorkspaceRepository().FindOne(ctx, specification.ByID{ID: workspaceID})
	if err != nil {
		return "", err
	}
	if ws == nil {
		return "", ErrWorkspaceNotFound
	}
	if ws.OwnerId == userID {
		return workspaceID, nil
	}

	member, err := uow.WorkspaceRepository().IsMember(ctx, workspaceID, userID)
	if err != nil {
		return "", err
	}
	if !member {
		return "", ErrNoAccess
	}
	return workspaceID, nil
}

// VerifyOwner returns the workspace when userID owns it.
func (v *Verifier) VerifyOwner(ctx context.Context, uow unitofwork.UnitOfWork, workspaceID, userID string) (*entity.Workspace, error) {
	ws, err := uow.WorkspaceRepository().FindOne(ctx, specification.ByID{ID: ResolveWorkspaceID(workspaceID, userID)})
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, ErrWorkspaceNotFound
	}
	if ws.OwnerId != userID {
		return nil, ErrNoAccess
	}
	return ws, nil
}
