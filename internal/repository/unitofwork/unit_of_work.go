package unitofwork

import (
	"context"

	"nexus-chat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	MessageRepository() contract.MessageRepository
	WorkspaceRepository() contract.WorkspaceRepository
	ThreadRepository() contract.ThreadRepository
	ProfileRepository() contract.ProfileRepository
}
