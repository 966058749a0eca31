package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/repository/contract"
	"nexus-chat-be/pkg/embedding"
	"nexus-chat-be/pkg/store"
)

const DefaultTopK = 5

// Retriever embeds a query and runs a scoped similarity search
type Retriever struct {
	embeddingProvider embedding.EmbeddingProvider
	index             contract.VectorIndex
	logger            logger.ILogger
}

func NewRetriever(embeddingProvider embedding.EmbeddingProvider, index contract.VectorIndex, logger logger.ILogger) *Retriever {
	return &Retriever{
		embeddingProvider: embeddingProvider,
		index:             index,
		logger:            logger,
	}
}

// Search returns at most topK documents from scope, most similar first.
// Chunks of the same message collapse into the best scoring one. Any error
// means the caller should continue without context.
func (r *Retriever) Search(ctx context.Context, query string, scope entity.VectorScope, topK int) ([]store.Document, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if strings.TrimSpace(query) == "" {
		return []store.Document{}, nil
	}

	embeddingRes, err := r.embeddingProvider.Generate(ctx, query, constant.EmbeddingTaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if got := len(embeddingRes.Embedding.Values); got != constant.EmbeddingDimension {
		return nil, fmt.Errorf("query embedding has %d dimensions, want %d", got, constant.EmbeddingDimension)
	}

	// Over-fetch so deduplication by message still fills topK.
	scored, err := r.index.Search(ctx, embeddingRes.Embedding.Values, scope, topK*2)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	docs := r.deduplicate(scored)
	if len(docs) > topK {
		docs = docs[:topK]
	}

	r.logger.Debug("RETRIEVER", "Scoped search finished", map[string]interface{}{
		"workspace_id": scope.WorkspaceId,
		"thread_id":    scope.ThreadId,
		"raw":          len(scored),
		"kept":         len(docs),
	})
	return docs, nil
}

func (r *Retriever) deduplicate(results []*entity.ScoredVectorRecord) []store.Document {
	docs := make([]store.Document, 0, len(results))
	seen := make(map[string]bool)

	for _, res := range results {
		key := res.Record.MessageId
		if key == "" {
			key = res.Record.Id
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		docs = append(docs, store.Document{
			ID:      res.Record.Id,
			Content: res.Record.Content,
			Score:   float32(res.Similarity),
			Metadata: map[string]interface{}{
				"message_id": res.Record.MessageId,
				"thread_id":  res.Record.ThreadId,
				"role":       res.Record.Role,
			},
		})
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Score > docs[j].Score
	})
	return docs
}
