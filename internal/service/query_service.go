package service

import (
	"context"
	"fmt"
	"strings"

	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/pkg/rag/prompt"
	"nexus-chat-be/pkg/rag/response"
	"nexus-chat-be/pkg/rag/search"
	"nexus-chat-be/pkg/store"
)

// IQueryService answers a one-off question over a thread without touching
// the message store. The caller supplies its own history.
type IQueryService interface {
	Query(ctx context.Context, userID string, req *dto.QueryRequest) (*dto.QueryResponse, error)
}

type queryService struct {
	workspaces IWorkspaceService
	profiles   IProfileDirectory
	retriever  *search.Retriever
	generator  *response.Generator
	topK       int
	logger     logger.ILogger
}

func NewQueryService(
	workspaces IWorkspaceService,
	profiles IProfileDirectory,
	retriever *search.Retriever,
	generator *response.Generator,
	topK int,
	logger logger.ILogger,
) IQueryService {
	return &queryService{
		workspaces: workspaces,
		profiles:   profiles,
		retriever:  retriever,
		generator:  generator,
		topK:       topK,
		logger:     logger,
	}
}

func (s *queryService) Query(ctx context.Context, userID string, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrValidation)
	}

	workspaceID, err := s.workspaces.ResolveThread(ctx, req.WorkspaceId, req.ThreadId, userID)
	if err != nil {
		return nil, err
	}

	docs, err := s.retriever.Search(ctx, query, entity.VectorScope{WorkspaceId: workspaceID, ThreadId: req.ThreadId}, s.topK)
	if err != nil {
		s.logger.Warn("QUERY", "Retrieval failed, answering without context", map[string]interface{}{
			"workspace_id": workspaceID,
			"error":        err.Error(),
		})
		docs = nil
	}

	turns := make([]store.Turn, 0, len(req.History))
	for _, h := range req.History {
		turns = append(turns, store.Turn{Role: h.Role, Sender: h.Sender, Content: h.Content})
	}

	roster, err := s.workspaces.Roster(ctx, workspaceID, userID)
	if err != nil {
		s.logger.Warn("QUERY", "Failed to load roster", map[string]interface{}{"error": err.Error()})
	}

	name := userID
	if p := s.profiles.Get(ctx, userID); p != nil {
		name = p.DisplayName()
	}

	answer, attempts, err := s.generator.Generate(ctx, prompt.Assemble(prompt.Input{
		Query:           query,
		UserDisplayName: name,
		Documents:       docs,
		History:         turns,
		Roster:          roster,
	}))
	if err != nil {
		s.logger.Error("QUERY", "Generation failed", map[string]interface{}{
			"attempts": attempts,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if response.IsSilent(answer) {
		answer = ""
	}

	sources := make([]*dto.SourceResponse, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, &dto.SourceResponse{Id: d.ID, Score: d.Score, Content: d.Content})
	}
	return &dto.QueryResponse{Answer: strings.TrimSpace(answer), Sources: sources}, nil
}
