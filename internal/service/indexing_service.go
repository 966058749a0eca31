package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/pkg/metrics"
	"nexus-chat-be/internal/repository/specification"
	"nexus-chat-be/internal/repository/unitofwork"
	"nexus-chat-be/pkg/rag/search"
	"nexus-chat-be/pkg/worker"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	IndexActionIndex       = "index"
	IndexActionReindex     = "reindex"
	IndexActionForget      = "forget"
	IndexActionForgetScope = "forget_scope"
)

// IndexJob is the payload carried on the indexing topic.
type IndexJob struct {
	Action      string `json:"action"`
	MessageId   string `json:"message_id,omitempty"`
	WorkspaceId string `json:"workspace_id,omitempty"`
	ThreadId    string `json:"thread_id,omitempty"`
	AllThreads  bool   `json:"all_threads,omitempty"`
}

func IndexMessageJob(messageID string) IndexJob {
	return IndexJob{Action: IndexActionIndex, MessageId: messageID}
}

func ReindexMessageJob(messageID string) IndexJob {
	return IndexJob{Action: IndexActionReindex, MessageId: messageID}
}

func ForgetMessageJob(messageID string) IndexJob {
	return IndexJob{Action: IndexActionForget, MessageId: messageID}
}

func ForgetScopeJob(scope entity.VectorScope) IndexJob {
	return IndexJob{
		Action:      IndexActionForgetScope,
		WorkspaceId: scope.WorkspaceId,
		ThreadId:    scope.ThreadId,
		AllThreads:  scope.AllThreads,
	}
}

type IIndexingService interface {
	// Enqueue publishes the job and returns without waiting for it to run.
	Enqueue(ctx context.Context, job IndexJob) error
	Consume(ctx context.Context) error
	Close() error
}

type indexingService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	indexer    *search.Indexer
	pool       *worker.Pool
	locks      *worker.KeyedMutex
	metrics    *metrics.Metrics
	logger     logger.ILogger
}

func NewIndexingService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	indexer *search.Indexer,
	pool *worker.Pool,
	metrics *metrics.Metrics,
	logger logger.ILogger,
) IIndexingService {
	return &indexingService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		indexer:    indexer,
		pool:       pool,
		locks:      worker.NewKeyedMutex(),
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *indexingService) Enqueue(ctx context.Context, job IndexJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		return fmt.Errorf("publish index job: %w", err)
	}
	return nil
}

// Consume hands every job to the worker pool. A message is acked as soon as
// the pool accepts it; from then on the pool tracks it until it finishes.
func (s *indexingService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.dispatch(msg)
		}
	}()

	return nil
}

func (s *indexingService) dispatch(msg *message.Message) {
	var job IndexJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		s.logger.Error("INDEXING", "Failed to unmarshal job", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed, a retry cannot fix it
		return
	}

	s.metrics.IndexingQueued.Inc()
	err := s.pool.Submit("index:"+job.Action, func(ctx context.Context) error {
		defer s.metrics.IndexingQueued.Dec()
		return s.process(ctx, job)
	})
	if err != nil {
		s.metrics.IndexingQueued.Dec()
		s.metrics.IndexingFailures.Inc()
		s.logger.Error("INDEXING", "Job dropped", map[string]interface{}{
			"action":     job.Action,
			"message_id": job.MessageId,
			"error":      err.Error(),
		})
	}
	msg.Ack()
}

// process runs one job. Jobs for the same message hold its lock, so a
// forget or reindex never interleaves with an upsert of older content.
func (s *indexingService) process(ctx context.Context, job IndexJob) error {
	if job.MessageId != "" {
		unlock := s.locks.Lock(job.MessageId)
		defer unlock()
	}

	switch job.Action {
	case IndexActionForget:
		return s.indexer.Forget(ctx, job.MessageId)
	case IndexActionForgetScope:
		return s.indexer.ForgetScope(ctx, entity.VectorScope{
			WorkspaceId: job.WorkspaceId,
			ThreadId:    job.ThreadId,
			AllThreads:  job.AllThreads,
		})
	case IndexActionIndex, IndexActionReindex:
	default:
		return fmt.Errorf("unknown index action %q", job.Action)
	}

	msg, err := s.load(ctx, job.MessageId)
	if err != nil {
		return err
	}
	if msg == nil {
		s.logger.Info("INDEXING", "Message gone before indexing, skipped", map[string]interface{}{"message_id": job.MessageId})
		return nil
	}

	var chunks int
	if job.Action == IndexActionReindex {
		chunks, err = s.indexer.Reindex(ctx, msg)
	} else {
		chunks, err = s.indexer.IndexMessage(ctx, msg)
	}
	if err != nil {
		return err
	}

	// Writers that skip the job queue (thread and workspace cascades) can
	// still land while the chunks were embedded.
	current, err := s.load(ctx, msg.Id)
	if err != nil {
		return err
	}
	switch {
	case current == nil:
		s.logger.Info("INDEXING", "Message deleted while indexing, chunks dropped", map[string]interface{}{"message_id": msg.Id})
		return s.indexer.Forget(ctx, msg.Id)
	case current.Content != msg.Content:
		s.logger.Info("INDEXING", "Message edited while indexing, reindexing", map[string]interface{}{"message_id": msg.Id})
		if chunks, err = s.indexer.Reindex(ctx, current); err != nil {
			return err
		}
	}

	s.logger.Debug("INDEXING", "Message indexed", map[string]interface{}{
		"message_id": msg.Id,
		"chunks":     chunks,
	})
	return nil
}

// load returns nil for a message that is missing or deleted for everyone.
func (s *indexingService) load(ctx context.Context, messageID string) (*entity.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	msg, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageID})
	if err != nil || msg == nil || msg.DeletedGlobally {
		return nil, err
	}
	return msg, nil
}

func (s *indexingService) Close() error {
	if err := s.pubSub.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// TaskErrorHandler logs failed pool tasks. Indexing failures are also
// counted. It is installed on the shared worker pool.
func TaskErrorHandler(log logger.ILogger, m *metrics.Metrics) worker.ErrorHandler {
	return func(name string, err error) {
		if strings.HasPrefix(name, "index:") {
			m.IndexingFailures.Inc()
		}
		log.Error("WORKER", "Background task failed", map[string]interface{}{
			"task":  name,
			"error": err.Error(),
		})
	}
}
