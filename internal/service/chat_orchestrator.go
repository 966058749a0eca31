package service

import (
	"context"
	"time"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/pkg/metrics"
	"nexus-chat-be/pkg/rag/history"
	msgfactory "nexus-chat-be/pkg/rag/message"
	"nexus-chat-be/pkg/rag/prompt"
	"nexus-chat-be/pkg/rag/response"
	"nexus-chat-be/pkg/rag/search"
	"nexus-chat-be/pkg/rag/signal"
	"nexus-chat-be/pkg/store"
	"nexus-chat-be/pkg/worker"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var orchestratorTracer = otel.Tracer("nexus-chat-be/orchestrator")

type OrchestratorConfig struct {
	HistoryLimit   int
	ObserverWindow int
	TopK           int
}

type IChatOrchestrator interface {
	// HandleUserMessage persists and broadcasts the message, then hands the
	// assistant decision to the worker pool. It returns once the message is
	// stored and fanned out.
	HandleUserMessage(ctx context.Context, author entity.Author, req *dto.SendMessageRequest) (*entity.Message, error)
	// Respond evaluates the trigger policy for msg and, when it fires,
	// generates and delivers one assistant message.
	Respond(ctx context.Context, author entity.Author, msg *entity.Message, triggerFlag bool) error
}

type chatOrchestrator struct {
	config      OrchestratorConfig
	messages    IMessageService
	workspaces  IWorkspaceService
	indexing    IIndexingService
	broadcaster Broadcaster
	policy      *signal.TriggerPolicy
	history     *history.Loader
	retriever   *search.Retriever
	generator   *response.Generator
	factory     *msgfactory.Factory
	pool        *worker.Pool
	metrics     *metrics.Metrics
	logger      logger.ILogger
}

func NewChatOrchestrator(
	config OrchestratorConfig,
	messages IMessageService,
	workspaces IWorkspaceService,
	indexing IIndexingService,
	broadcaster Broadcaster,
	policy *signal.TriggerPolicy,
	historyLoader *history.Loader,
	retriever *search.Retriever,
	generator *response.Generator,
	factory *msgfactory.Factory,
	pool *worker.Pool,
	metrics *metrics.Metrics,
	logger logger.ILogger,
) IChatOrchestrator {
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = history.DefaultLimit
	}
	if config.ObserverWindow <= 0 {
		config.ObserverWindow = 5
	}
	if config.TopK <= 0 {
		config.TopK = search.DefaultTopK
	}
	return &chatOrchestrator{
		config:      config,
		messages:    messages,
		workspaces:  workspaces,
		indexing:    indexing,
		broadcaster: broadcaster,
		policy:      policy,
		history:     historyLoader,
		retriever:   retriever,
		generator:   generator,
		factory:     factory,
		pool:        pool,
		metrics:     metrics,
		logger:      logger,
	}
}

func (o *chatOrchestrator) HandleUserMessage(ctx context.Context, author entity.Author, req *dto.SendMessageRequest) (*entity.Message, error) {
	msg, err := o.messages.Append(ctx, author, req)
	if err != nil {
		return nil, err
	}

	if req.DisableAI {
		return msg, nil
	}
	if o.policy.Mode() == constant.TriggerModeDirect && !o.policy.Direct(msg.Content, req.TriggerAI) {
		o.metrics.AIDecisions.WithLabelValues(constant.TriggerModeDirect, "skip").Inc()
		return msg, nil
	}

	triggerFlag := req.TriggerAI
	err = o.pool.Submit("respond:"+msg.Id, func(taskCtx context.Context) error {
		return o.Respond(taskCtx, author, msg, triggerFlag)
	})
	if err != nil {
		o.logger.Error("ORCHESTRATOR", "Failed to schedule assistant turn", map[string]interface{}{
			"message_id": msg.Id,
			"error":      err.Error(),
		})
	}
	return msg, nil
}

func (o *chatOrchestrator) Respond(ctx context.Context, author entity.Author, msg *entity.Message, triggerFlag bool) error {
	var (
		window   []*entity.Message
		decision signal.Decision
	)
	if o.policy.Direct(msg.Content, triggerFlag) {
		decision = o.policy.Decide(msg.Content, triggerFlag, nil, 0)
	} else {
		var err error
		window, err = o.history.Recent(ctx, msg.WorkspaceId, msg.ThreadId, author.UserID, msg.Id, o.config.ObserverWindow)
		if err != nil {
			return err
		}
		texts := append(history.Texts(window), msg.Content)
		decision = o.policy.Decide(msg.Content, triggerFlag, texts, history.CountAssistant(window))
	}

	if !decision.Respond {
		o.metrics.AIDecisions.WithLabelValues(o.policy.Mode(), "skip").Inc()
		return nil
	}
	o.metrics.AIDecisions.WithLabelValues(decision.Mode, "respond").Inc()

	o.logger.Info("ORCHESTRATOR", "Assistant turn started", map[string]interface{}{
		"message_id": msg.Id,
		"mode":       decision.Mode,
	})

	ctx, span := orchestratorTracer.Start(ctx, "orchestrator.respond",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("message_id", msg.Id),
			attribute.String("mode", decision.Mode),
		),
	)
	defer span.End()

	o.emitTyping(msg, true)
	defer o.emitTyping(msg, false)

	docs := o.retrieve(ctx, msg)
	in := prompt.Input{
		Query:           msg.Content,
		UserDisplayName: author.DisplayName,
		Documents:       docs,
		History:         o.loadTurns(ctx, msg, author.UserID),
		Roster:          o.loadRoster(ctx, msg.WorkspaceId, author.UserID),
	}
	if msg.ReplyTo != nil {
		in.ReplyTo = &store.ReplyContext{Sender: msg.ReplyTo.Sender, Content: msg.ReplyTo.Content}
	}

	content, apology := o.generate(ctx, prompt.Assemble(in), msg.Id)
	if !apology && response.IsSilent(content) {
		o.metrics.AIReplies.WithLabelValues("silent").Inc()
		return nil
	}

	reply := o.factory.CreateAssistantMessage(msg.WorkspaceId, msg.ThreadId, content, decision.Mode, sourceIDs(docs))
	if err := o.messages.DeliverAssistant(ctx, reply); err != nil {
		o.logger.Error("ORCHESTRATOR", "Assistant reply delivered without persistence", map[string]interface{}{
			"message_id": reply.Id,
			"error":      err.Error(),
		})
		return nil
	}

	if !apology && o.indexing != nil {
		if err := o.indexing.Enqueue(ctx, IndexMessageJob(reply.Id)); err != nil {
			o.metrics.IndexingFailures.Inc()
			o.logger.Warn("ORCHESTRATOR", "Failed to enqueue reply indexing", map[string]interface{}{
				"message_id": reply.Id,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

// retrieve treats every failure as "no relevant documents".
func (o *chatOrchestrator) retrieve(ctx context.Context, msg *entity.Message) []store.Document {
	ctx, span := orchestratorTracer.Start(ctx, "orchestrator.retrieve")
	defer span.End()
	span.SetAttributes(
		attribute.String("workspace_id", msg.WorkspaceId),
		attribute.String("thread_id", msg.ThreadId),
	)

	start := time.Now()
	docs, err := o.retriever.Search(ctx, msg.Content, entity.VectorScope{
		WorkspaceId: msg.WorkspaceId,
		ThreadId:    msg.ThreadId,
	}, o.config.TopK)
	o.metrics.RetrievalLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		o.logger.Warn("ORCHESTRATOR", "Retrieval failed, continuing without context", map[string]interface{}{
			"message_id": msg.Id,
			"error":      err.Error(),
		})
		return nil
	}

	// The triggering message may already be indexed; it is the query, not context.
	filtered := docs[:0]
	for _, d := range docs {
		if id, _ := d.Metadata["message_id"].(string); id == msg.Id {
			continue
		}
		filtered = append(filtered, d)
	}
	span.SetAttributes(attribute.Int("documents", len(filtered)))
	return filtered
}

func (o *chatOrchestrator) loadTurns(ctx context.Context, msg *entity.Message, viewerID string) []store.Turn {
	recent, err := o.history.Recent(ctx, msg.WorkspaceId, msg.ThreadId, viewerID, msg.Id, o.config.HistoryLimit)
	if err != nil {
		o.logger.Warn("ORCHESTRATOR", "Failed to load history", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return o.history.Turns(ctx, recent, viewerID)
}

func (o *chatOrchestrator) loadRoster(ctx context.Context, workspaceID, viewerID string) []string {
	roster, err := o.workspaces.Roster(ctx, workspaceID, viewerID)
	if err != nil {
		o.logger.Warn("ORCHESTRATOR", "Failed to load roster", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return roster
}

// generate returns the model output, or the apology text and true when every
// attempt failed.
func (o *chatOrchestrator) generate(ctx context.Context, promptText, messageID string) (string, bool) {
	ctx, span := orchestratorTracer.Start(ctx, "orchestrator.generate")
	defer span.End()

	start := time.Now()
	content, attempts, err := o.generator.Generate(ctx, promptText)
	o.metrics.GenerationLatency.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("attempts", attempts))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		o.metrics.AIReplies.WithLabelValues("apology").Inc()
		o.logger.Error("ORCHESTRATOR", "Generation failed, sending apology", map[string]interface{}{
			"message_id": messageID,
			"attempts":   attempts,
			"error":      err.Error(),
		})
		return response.ApologyMessage, true
	}
	o.metrics.AIReplies.WithLabelValues("reply").Inc()
	return content, false
}

func (o *chatOrchestrator) emitTyping(msg *entity.Message, typing bool) {
	o.broadcaster.EmitToRoom(msg.RoomID(), EventTyping, dto.TypingEvent{
		WorkspaceId:       msg.WorkspaceId,
		ThreadId:          msg.ThreadId,
		SenderId:          constant.AssistantSenderID,
		SenderDisplayName: constant.AssistantSenderName,
		IsTyping:          typing,
	}, "")
}

func sourceIDs(docs []store.Document) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids
}
