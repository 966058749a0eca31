package contract

import (
	"context"

	"nexus-chat-be/internal/entity"
)

// VectorIndex stores scoped embeddings. Implementations: pgvector over gorm
// and chromem-go in process.
type VectorIndex interface {
	Upsert(ctx context.Context, record *entity.VectorRecord) error
	// Search returns at most limit records inside scope, most similar first.
	// Similarity is normalized to [0,1]. An empty scope yields an empty slice.
	Search(ctx context.Context, embedding []float32, scope entity.VectorScope, limit int) ([]*entity.ScoredVectorRecord, error)
	DeleteByScope(ctx context.Context, scope entity.VectorScope) error
	DeleteByMessage(ctx context.Context, messageID string) error
}
