package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/pkg/metrics"
	"nexus-chat-be/internal/repository/specification"
	"nexus-chat-be/internal/repository/unitofwork"
	"nexus-chat-be/pkg/events"
	msgfactory "nexus-chat-be/pkg/rag/message"
)

type IMessageService interface {
	// Append persists a user message and broadcasts it to the room. Nothing
	// is broadcast when persistence fails.
	Append(ctx context.Context, author entity.Author, req *dto.SendMessageRequest) (*entity.Message, error)
	// DeliverAssistant persists an assistant reply and broadcasts it. The
	// broadcast happens even when the write fails; the error is returned for
	// logging only.
	DeliverAssistant(ctx context.Context, msg *entity.Message) error
	Range(ctx context.Context, viewerID, workspaceID, threadID string, since *time.Time) ([]*entity.Message, error)
	Edit(ctx context.Context, editorID string, req *dto.EditMessageRequest) (*entity.Message, error)
	Delete(ctx context.Context, requesterID string, req *dto.DeleteMessageRequest) error
}

type messageService struct {
	uowFactory  unitofwork.RepositoryFactory
	workspaces  IWorkspaceService
	indexing    IIndexingService
	broadcaster Broadcaster
	publisher   events.Publisher
	factory     *msgfactory.Factory
	metrics     *metrics.Metrics
	logger      logger.ILogger
}

func NewMessageService(
	uowFactory unitofwork.RepositoryFactory,
	workspaces IWorkspaceService,
	indexing IIndexingService,
	broadcaster Broadcaster,
	publisher events.Publisher,
	factory *msgfactory.Factory,
	metrics *metrics.Metrics,
	logger logger.ILogger,
) IMessageService {
	return &messageService{
		uowFactory:  uowFactory,
		workspaces:  workspaces,
		indexing:    indexing,
		broadcaster: broadcaster,
		publisher:   publisher,
		factory:     factory,
		metrics:     metrics,
		logger:      logger,
	}
}

func (s *messageService) Append(ctx context.Context, author entity.Author, req *dto.SendMessageRequest) (*entity.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrValidation)
	}

	workspaceID, err := s.workspaces.ResolveThread(ctx, req.WorkspaceId, req.ThreadId, author.UserID)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	var reply *entity.ReplySnapshot
	if req.ReplyTo != "" {
		target, err := uow.MessageRepository().FindOne(ctx,
			specification.ByID{ID: req.ReplyTo},
			specification.ByThread{WorkspaceID: workspaceID, ThreadID: req.ThreadId},
			specification.NotDeletedGlobally{},
			specification.VisibleTo{UserID: author.UserID},
		)
		if err != nil {
			return nil, err
		}
		if target == nil {
			return nil, fmt.Errorf("%w: replied message", ErrNotFound)
		}
		reply = &entity.ReplySnapshot{
			MessageId: target.Id,
			SenderId:  target.SenderId,
			Sender:    target.SenderDisplayName,
			Content:   target.Content,
		}
	}

	msg := s.factory.CreateUserMessage(workspaceID, req.ThreadId, author.UserID, author.DisplayName, content, reply)
	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}
	s.metrics.MessagesPersisted.WithLabelValues(msg.Role).Inc()

	s.broadcaster.BroadcastMessage(msg, author)

	s.enqueue(ctx, IndexMessageJob(msg.Id))
	s.publish(ctx, events.TypeMessageCreated, map[string]interface{}{
		"message_id":   msg.Id,
		"workspace_id": msg.WorkspaceId,
		"thread_id":    msg.ThreadId,
		"sender_id":    msg.SenderId,
	})
	return msg, nil
}

func (s *messageService) DeliverAssistant(ctx context.Context, msg *entity.Message) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	persistErr := uow.MessageRepository().Create(ctx, msg)
	if persistErr == nil {
		s.metrics.MessagesPersisted.WithLabelValues(msg.Role).Inc()
	}

	s.broadcaster.BroadcastMessage(msg, entity.Author{
		UserID:      constant.AssistantSenderID,
		DisplayName: constant.AssistantSenderName,
	})

	if persistErr != nil {
		return fmt.Errorf("persist assistant reply: %w", persistErr)
	}
	s.publish(ctx, events.TypeAssistantReplied, map[string]interface{}{
		"message_id":   msg.Id,
		"workspace_id": msg.WorkspaceId,
		"thread_id":    msg.ThreadId,
		"mode":         msg.Metadata["mode"],
	})
	return nil
}

func (s *messageService) Range(ctx context.Context, viewerID, workspaceID, threadID string, since *time.Time) ([]*entity.Message, error) {
	resolved, err := s.workspaces.ResolveThread(ctx, workspaceID, threadID, viewerID)
	if err != nil {
		return nil, err
	}

	specs := []specification.Specification{
		specification.ByThread{WorkspaceID: resolved, ThreadID: threadID},
		specification.VisibleTo{UserID: viewerID},
	}
	if since != nil {
		specs = append(specs, specification.CreatedSince{Since: *since})
	}
	specs = append(specs, specification.Chronological{})

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.MessageRepository().FindAll(ctx, specs...)
}

// classifyMissedUpdate explains why a conditional update by sender changed
// no row.
func (s *messageService) classifyMissedUpdate(ctx context.Context, uow unitofwork.UnitOfWork, messageID string) error {
	current, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageID})
	if err != nil {
		return err
	}
	if current == nil || current.DeletedGlobally {
		return fmt.Errorf("%w: message", ErrNotFound)
	}
	return fmt.Errorf("%w: only the sender can change this message", ErrUnauthorized)
}

func (s *messageService) Edit(ctx context.Context, editorID string, req *dto.EditMessageRequest) (*entity.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrValidation)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.MessageRepository().UpdateContentBySender(ctx, req.MessageId, editorID, content)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, s.classifyMissedUpdate(ctx, uow, req.MessageId)
	}

	msg, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: req.MessageId})
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: message", ErrNotFound)
	}

	s.broadcaster.EmitToRoom(msg.RoomID(), EventMessageUpdated, dto.MessageUpdatedEvent{
		Id:          msg.Id,
		Content:     msg.Content,
		IsEdited:    true,
		WorkspaceId: msg.WorkspaceId,
		ThreadId:    msg.ThreadId,
	}, "")

	s.enqueue(ctx, ReindexMessageJob(msg.Id))
	s.publish(ctx, events.TypeMessageEdited, map[string]interface{}{"message_id": msg.Id, "editor_id": editorID})
	return msg, nil
}

func (s *messageService) Delete(ctx context.Context, requesterID string, req *dto.DeleteMessageRequest) error {
	switch req.DeleteType {
	case constant.DeleteScopeEveryone:
		return s.deleteForEveryone(ctx, requesterID, req.MessageId)
	case constant.DeleteScopeSelf:
		return s.deleteForSelf(ctx, requesterID, req.MessageId)
	default:
		return fmt.Errorf("%w: delete_type must be everyone or self", ErrValidation)
	}
}

func (s *messageService) deleteForEveryone(ctx context.Context, requesterID, messageID string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.MessageRepository().TombstoneBySender(ctx, messageID, requesterID, constant.DeletedMessageTombstone)
	if err != nil {
		return err
	}
	if rows == 0 {
		return s.classifyMissedUpdate(ctx, uow, messageID)
	}

	msg, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageID})
	if err != nil {
		return err
	}
	if msg == nil {
		return fmt.Errorf("%w: message", ErrNotFound)
	}

	s.broadcaster.EmitToRoom(msg.RoomID(), EventMessageDeleted, dto.MessageDeletedEvent{
		Id:          msg.Id,
		Type:        constant.DeleteScopeEveryone,
		WorkspaceId: msg.WorkspaceId,
		ThreadId:    msg.ThreadId,
	}, "")

	s.enqueue(ctx, ForgetMessageJob(msg.Id))
	s.publish(ctx, events.TypeMessageDeleted, map[string]interface{}{"message_id": msg.Id, "scope": constant.DeleteScopeEveryone})
	return nil
}

func (s *messageService) deleteForSelf(ctx context.Context, requesterID, messageID string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	msg, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageID})
	if err != nil {
		return err
	}
	if msg == nil {
		return fmt.Errorf("%w: message", ErrNotFound)
	}
	if _, err := s.workspaces.CanAccess(ctx, msg.WorkspaceId, requesterID); err != nil {
		return err
	}

	if err := uow.MessageRepository().HideForUser(ctx, messageID, requesterID); err != nil {
		return err
	}

	s.broadcaster.EmitToUser(requesterID, EventMessageDeleted, dto.MessageDeletedEvent{
		Id:          msg.Id,
		Type:        constant.DeleteScopeSelf,
		WorkspaceId: msg.WorkspaceId,
		ThreadId:    msg.ThreadId,
	})
	return nil
}

func (s *messageService) enqueue(ctx context.Context, job IndexJob) {
	if s.indexing == nil {
		return
	}
	if err := s.indexing.Enqueue(ctx, job); err != nil {
		s.metrics.IndexingFailures.Inc()
		s.logger.Error("MESSAGE", "Failed to enqueue index job", map[string]interface{}{
			"action":     job.Action,
			"message_id": job.MessageId,
			"error":      err.Error(),
		})
	}
}

func (s *messageService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewChatEvent(eventType, data)); err != nil {
		s.logger.Warn("MESSAGE", "Failed to publish event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}
