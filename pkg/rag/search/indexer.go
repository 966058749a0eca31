package search

import (
	"context"
	"fmt"
	"strings"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/repository/contract"
	"nexus-chat-be/pkg/embedding"
	"nexus-chat-be/pkg/utils"
)

const (
	chunkSize    = 800
	chunkOverlap = 100
)

// Indexer embeds message content into the vector index
type Indexer struct {
	embeddingProvider embedding.EmbeddingProvider
	index             contract.VectorIndex
}

func NewIndexer(embeddingProvider embedding.EmbeddingProvider, index contract.VectorIndex) *Indexer {
	return &Indexer{
		embeddingProvider: embeddingProvider,
		index:             index,
	}
}

// IndexMessage writes one record per chunk. Blank content is skipped without
// error. Record ids derive from the message id, so re-indexing after an edit
// overwrites the previous chunks.
func (i *Indexer) IndexMessage(ctx context.Context, msg *entity.Message) (int, error) {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return 0, nil
	}

	chunks := utils.SplitText(content, chunkSize, chunkOverlap)
	for idx, chunk := range chunks {
		res, err := i.embeddingProvider.Generate(ctx, chunk, constant.EmbeddingTaskDocument)
		if err != nil {
			return idx, fmt.Errorf("embed chunk %d of message %s: %w", idx, msg.Id, err)
		}

		record := &entity.VectorRecord{
			Id:          fmt.Sprintf("%s_%d", msg.Id, idx),
			WorkspaceId: msg.WorkspaceId,
			ThreadId:    msg.ThreadId,
			MessageId:   msg.Id,
			ChunkIndex:  idx,
			Role:        msg.Role,
			Content:     chunk,
			Embedding:   res.Embedding.Values,
			CreatedAt:   msg.CreatedAt,
		}
		if err := i.index.Upsert(ctx, record); err != nil {
			return idx, fmt.Errorf("upsert chunk %d of message %s: %w", idx, msg.Id, err)
		}
	}
	return len(chunks), nil
}

// Reindex drops every chunk of the message before indexing the new content.
func (i *Indexer) Reindex(ctx context.Context, msg *entity.Message) (int, error) {
	if err := i.index.DeleteByMessage(ctx, msg.Id); err != nil {
		return 0, fmt.Errorf("drop old chunks of message %s: %w", msg.Id, err)
	}
	return i.IndexMessage(ctx, msg)
}

func (i *Indexer) Forget(ctx context.Context, messageID string) error {
	return i.index.DeleteByMessage(ctx, messageID)
}

func (i *Indexer) ForgetScope(ctx context.Context, scope entity.VectorScope) error {
	return i.index.DeleteByScope(ctx, scope)
}
