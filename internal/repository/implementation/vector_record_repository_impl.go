package implementation

import (
	"context"
	"fmt"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/mapper"
	"nexus-chat-be/internal/model"
	"nexus-chat-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VectorRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.VectorRecordMapper
}

func NewVectorRecordRepository(db *gorm.DB) contract.VectorIndex {
	return &VectorRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewVectorRecordMapper(),
	}
}

func (r *VectorRecordRepositoryImpl) Upsert(ctx context.Context, record *entity.VectorRecord) error {
	if len(record.Embedding) != constant.EmbeddingDimension {
		return fmt.Errorf("vector record %s: dimension %d, want %d", record.Id, len(record.Embedding), constant.EmbeddingDimension)
	}
	m := r.mapper.ToModel(record)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "embedding_value", "role"}),
		}).
		Create(m).Error
}

func (r *VectorRecordRepositoryImpl) Search(ctx context.Context, embedding []float32, scope entity.VectorScope, limit int) ([]*entity.ScoredVectorRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	if len(embedding) != constant.EmbeddingDimension {
		return nil, fmt.Errorf("query embedding: dimension %d, want %d", len(embedding), constant.EmbeddingDimension)
	}

	// Cosine distance in pgvector is 1 - cosine_similarity.
	type result struct {
		model.VectorRecord
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)
	query := r.db.WithContext(ctx).
		Table("vector_records").
		Select("vector_records.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("workspace_id = ?", scope.WorkspaceId)
	if !scope.AllThreads {
		query = query.Where("thread_id = ?", scope.ThreadId)
	}

	err := query.
		Order(clause.Expr{SQL: "embedding_value <=> ?", Vars: []interface{}{queryVector}}).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredVectorRecord, len(results))
	for i, res := range results {
		scored[i] = &entity.ScoredVectorRecord{
			Record:     r.mapper.ToEntity(&res.VectorRecord),
			Similarity: clampSimilarity(res.Similarity),
		}
	}
	return scored, nil
}

func (r *VectorRecordRepositoryImpl) DeleteByScope(ctx context.Context, scope entity.VectorScope) error {
	query := r.db.WithContext(ctx).Where("workspace_id = ?", scope.WorkspaceId)
	if !scope.AllThreads {
		query = query.Where("thread_id = ?", scope.ThreadId)
	}
	return query.Delete(&model.VectorRecord{}).Error
}

func (r *VectorRecordRepositoryImpl) DeleteByMessage(ctx context.Context, messageID string) error {
	return r.db.WithContext(ctx).Where("message_id = ?", messageID).Delete(&model.VectorRecord{}).Error
}

func clampSimilarity(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
