package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/repository/specification"
	"nexus-chat-be/internal/repository/unitofwork"
	"nexus-chat-be/pkg/events"
	"nexus-chat-be/pkg/rag/access"

	"github.com/google/uuid"
)

const defaultNewThreadTitle = "New Chat"

type IWorkspaceService interface {
	ListForUser(ctx context.Context, userID string) ([]*entity.Workspace, error)
	Create(ctx context.Context, ownerID, name string) (*entity.Workspace, error)
	CreateThread(ctx context.Context, workspaceID, requesterID, title string) (*entity.Thread, error)
	Join(ctx context.Context, workspaceID, userID string) (*entity.Workspace, error)
	Delete(ctx context.Context, workspaceID, requesterID string) error
	DeleteThread(ctx context.Context, workspaceID, threadID, requesterID string) error

	// EnsurePersonal is the idempotent get-or-create of the caller's personal
	// workspace. It reports whether this call created it.
	EnsurePersonal(ctx context.Context, userID string) (*entity.Workspace, bool, error)
	// CanAccess returns the resolved workspace id (the personal marker becomes
	// the caller's personal id) when userID owns or belongs to it.
	CanAccess(ctx context.Context, workspaceID, userID string) (string, error)
	// ResolveThread is CanAccess plus a check that threadID exists in the
	// workspace. Messages are only ever written to and read from such threads.
	ResolveThread(ctx context.Context, workspaceID, threadID, userID string) (string, error)
	// Roster lists participant display names as viewerID sees them.
	Roster(ctx context.Context, workspaceID, viewerID string) ([]string, error)
}

type workspaceService struct {
	uowFactory unitofwork.RepositoryFactory
	verifier   *access.Verifier
	profiles   IProfileDirectory
	indexing   IIndexingService
	publisher  events.Publisher
	logger     logger.ILogger
}

func NewWorkspaceService(
	uowFactory unitofwork.RepositoryFactory,
	profiles IProfileDirectory,
	indexing IIndexingService,
	publisher events.Publisher,
	logger logger.ILogger,
) IWorkspaceService {
	return &workspaceService{
		uowFactory: uowFactory,
		verifier:   access.NewVerifier(),
		profiles:   profiles,
		indexing:   indexing,
		publisher:  publisher,
		logger:     logger,
	}
}

// mapAccessError turns verifier results into service result variants.
func mapAccessError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, access.ErrWorkspaceNotFound):
		return fmt.Errorf("%w: workspace", ErrNotFound)
	case errors.Is(err, access.ErrNoAccess):
		return fmt.Errorf("%w: not a member of this workspace", ErrUnauthorized)
	default:
		return err
	}
}

func synthesizedPersonal(userID string) *entity.Workspace {
	return &entity.Workspace{
		Id:         constant.PersonalWorkspaceID(userID),
		OwnerId:    userID,
		Name:       constant.PersonalWorkspaceName,
		IsPersonal: true,
		Members:    []string{},
		Threads:    []*entity.Thread{defaultThread(constant.PersonalWorkspaceID(userID))},
	}
}

func defaultThread(workspaceID string) *entity.Thread {
	return &entity.Thread{
		Id:          constant.DefaultThreadID,
		WorkspaceId: workspaceID,
		Title:       constant.DefaultThreadTitle,
	}
}

func (s *workspaceService) ListForUser(ctx context.Context, userID string) ([]*entity.Workspace, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	personalID := constant.PersonalWorkspaceID(userID)
	personal, err := uow.WorkspaceRepository().FindOne(ctx, specification.ByID{ID: personalID})
	if err != nil {
		return nil, err
	}
	if personal == nil {
		personal = synthesizedPersonal(userID)
	} else {
		threads, err := uow.ThreadRepository().FindByWorkspace(ctx, personalID)
		if err != nil {
			return nil, err
		}
		if len(threads) == 0 {
			threads = []*entity.Thread{defaultThread(personalID)}
		}
		personal.Threads = threads
		personal.Members = []string{}
	}

	groups, err := uow.WorkspaceRepository().FindAll(ctx,
		specification.AccessibleBy{UserID: userID},
		specification.Personal{IsPersonal: false},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*entity.Workspace, 0, len(groups)+1)
	result = append(result, personal)
	for _, ws := range groups {
		if ws.Threads, err = uow.ThreadRepository().FindByWorkspace(ctx, ws.Id); err != nil {
			return nil, err
		}
		if ws.Members, err = uow.WorkspaceRepository().ListMembers(ctx, ws.Id); err != nil {
			return nil, err
		}
		result = append(result, ws)
	}
	return result, nil
}

func (s *workspaceService) Create(ctx context.Context, ownerID, name string) (*entity.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	ws := &entity.Workspace{
		Id:      uuid.NewString(),
		OwnerId: ownerID,
		Name:    name,
		Members: []string{},
	}
	thread := defaultThread(ws.Id)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.WorkspaceRepository().Create(ctx, ws); err != nil {
		return nil, err
	}
	if err := uow.ThreadRepository().Create(ctx, thread); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	ws.Threads = []*entity.Thread{thread}
	s.publish(ctx, events.TypeWorkspaceCreated, map[string]interface{}{"workspace_id": ws.Id, "owner_id": ownerID})
	return ws, nil
}

func (s *workspaceService) EnsurePersonal(ctx context.Context, userID string) (*entity.Workspace, bool, error) {
	ws := synthesizedPersonal(userID)
	ws.Threads = nil

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, false, err
	}
	defer uow.Rollback()

	created, err := uow.WorkspaceRepository().CreateIfAbsent(ctx, ws)
	if err != nil {
		return nil, false, err
	}
	// Only the call that created the row seeds the default thread, so the
	// General chat that was shown before materialization keeps its history.
	if created {
		if err := uow.ThreadRepository().Create(ctx, defaultThread(ws.Id)); err != nil {
			return nil, false, err
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, false, err
	}

	stored, err := s.uowFactory.NewUnitOfWork(ctx).WorkspaceRepository().FindOne(ctx, specification.ByID{ID: ws.Id})
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("personal workspace %s missing after insert", ws.Id)
	}
	return stored, created, nil
}

func (s *workspaceService) CreateThread(ctx context.Context, workspaceID, requesterID, title string) (*entity.Thread, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultNewThreadTitle
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	resolved, err := s.verifier.VerifyWorkspaceAccess(ctx, uow, workspaceID, requesterID)
	if err != nil {
		return nil, mapAccessError(err)
	}
	if access.IsPersonalID(resolved) {
		if _, _, err := s.EnsurePersonal(ctx, requesterID); err != nil {
			return nil, err
		}
	}

	thread := &entity.Thread{
		Id:          uuid.NewString(),
		WorkspaceId: resolved,
		Title:       title,
	}
	if err := uow.ThreadRepository().Create(ctx, thread); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeThreadCreated, map[string]interface{}{"workspace_id": resolved, "thread_id": thread.Id})
	return thread, nil
}

func (s *workspaceService) Join(ctx context.Context, workspaceID, userID string) (*entity.Workspace, error) {
	if access.IsPersonalID(workspaceID) || workspaceID == constant.PersonalWorkspaceMarker {
		return nil, fmt.Errorf("%w: personal workspaces cannot be joined", ErrForbidden)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	ws, err := uow.WorkspaceRepository().FindOne(ctx, specification.ByID{ID: workspaceID})
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, fmt.Errorf("%w: workspace", ErrNotFound)
	}

	if ws.OwnerId != userID {
		if err := uow.WorkspaceRepository().AddMember(ctx, workspaceID, userID); err != nil {
			return nil, err
		}
	}

	if ws.Threads, err = uow.ThreadRepository().FindByWorkspace(ctx, ws.Id); err != nil {
		return nil, err
	}
	if ws.Members, err = uow.WorkspaceRepository().ListMembers(ctx, ws.Id); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeWorkspaceJoined, map[string]interface{}{"workspace_id": ws.Id, "user_id": userID})
	return ws, nil
}

func (s *workspaceService) Delete(ctx context.Context, workspaceID, requesterID string) error {
	if access.IsPersonalID(workspaceID) || workspaceID == constant.PersonalWorkspaceMarker {
		return fmt.Errorf("%w: the personal workspace cannot be deleted", ErrForbidden)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.verifier.VerifyOwner(ctx, uow, workspaceID, requesterID); err != nil {
		if errors.Is(err, access.ErrNoAccess) {
			return fmt.Errorf("%w: only the owner can delete a workspace", ErrUnauthorized)
		}
		return mapAccessError(err)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().DeleteByWorkspace(ctx, workspaceID); err != nil {
		return err
	}
	if err := uow.ThreadRepository().DeleteByWorkspace(ctx, workspaceID); err != nil {
		return err
	}
	if err := uow.WorkspaceRepository().DeleteMembers(ctx, workspaceID); err != nil {
		return err
	}
	if err := uow.WorkspaceRepository().Delete(ctx, workspaceID); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.forgetScope(ctx, entity.VectorScope{WorkspaceId: workspaceID, AllThreads: true})
	s.publish(ctx, events.TypeWorkspaceDeleted, map[string]interface{}{"workspace_id": workspaceID})
	return nil
}

func (s *workspaceService) DeleteThread(ctx context.Context, workspaceID, threadID, requesterID string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ws, err := s.verifier.VerifyOwner(ctx, uow, workspaceID, requesterID)
	if err != nil {
		if errors.Is(err, access.ErrNoAccess) {
			return fmt.Errorf("%w: only the owner can delete a chat", ErrUnauthorized)
		}
		return mapAccessError(err)
	}

	thread, err := uow.ThreadRepository().FindOne(ctx, ws.Id, threadID)
	if err != nil {
		return err
	}
	if thread == nil {
		return fmt.Errorf("%w: chat", ErrNotFound)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().DeleteByThread(ctx, ws.Id, threadID); err != nil {
		return err
	}
	if err := uow.ThreadRepository().Delete(ctx, ws.Id, threadID); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.forgetScope(ctx, entity.VectorScope{WorkspaceId: ws.Id, ThreadId: threadID})
	s.publish(ctx, events.TypeThreadDeleted, map[string]interface{}{"workspace_id": ws.Id, "thread_id": threadID})
	return nil
}

func (s *workspaceService) CanAccess(ctx context.Context, workspaceID, userID string) (string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	resolved, err := s.verifier.VerifyWorkspaceAccess(ctx, uow, workspaceID, userID)
	return resolved, mapAccessError(err)
}

func (s *workspaceService) ResolveThread(ctx context.Context, workspaceID, threadID, userID string) (string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	resolved, err := s.verifier.VerifyWorkspaceAccess(ctx, uow, workspaceID, userID)
	if err != nil {
		return "", mapAccessError(err)
	}

	thread, err := uow.ThreadRepository().FindOne(ctx, resolved, threadID)
	if err != nil {
		return "", err
	}
	if thread != nil {
		return resolved, nil
	}

	// The personal General chat is listed before anything is persisted, and
	// again whenever the personal workspace has no threads left.
	if access.IsPersonalID(resolved) && threadID == constant.DefaultThreadID {
		threads, err := uow.ThreadRepository().FindByWorkspace(ctx, resolved)
		if err != nil {
			return "", err
		}
		if len(threads) == 0 {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("%w: chat", ErrNotFound)
}

func (s *workspaceService) Roster(ctx context.Context, workspaceID, viewerID string) ([]string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	ids := []string{}
	if access.IsPersonalID(workspaceID) {
		ids = append(ids, strings.TrimPrefix(workspaceID, constant.PersonalWorkspacePrefix))
	} else {
		ws, err := uow.WorkspaceRepository().FindOne(ctx, specification.ByID{ID: workspaceID})
		if err != nil {
			return nil, err
		}
		if ws == nil {
			return nil, fmt.Errorf("%w: workspace", ErrNotFound)
		}
		members, err := uow.WorkspaceRepository().ListMembers(ctx, workspaceID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, ws.OwnerId)
		for _, m := range members {
			if m != ws.OwnerId {
				ids = append(ids, m)
			}
		}
	}

	profiles := s.profiles.Profiles(ctx, ids)
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		p := profiles[id]
		if p.IsPrivate && id != viewerID {
			names = append(names, entity.MaskedName(id))
			continue
		}
		names = append(names, p.DisplayName())
	}
	return names, nil
}

func (s *workspaceService) forgetScope(ctx context.Context, scope entity.VectorScope) {
	if s.indexing == nil {
		return
	}
	if err := s.indexing.Enqueue(ctx, ForgetScopeJob(scope)); err != nil {
		s.logger.Warn("WORKSPACE", "Failed to enqueue vector cleanup", map[string]interface{}{
			"workspace_id": scope.WorkspaceId,
			"thread_id":    scope.ThreadId,
			"error":        err.Error(),
		})
	}
}

func (s *workspaceService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewChatEvent(eventType, data)); err != nil {
		s.logger.Warn("WORKSPACE", "Failed to publish event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}
