package mapper

import (
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type VectorRecordMapper struct{}

func NewVectorRecordMapper() *VectorRecordMapper {
	return &VectorRecordMapper{}
}

func (m *VectorRecordMapper) ToEntity(v *model.VectorRecord) *entity.VectorRecord {
	if v == nil {
		return nil
	}
	return &entity.VectorRecord{
		Id:          v.Id,
		WorkspaceId: v.WorkspaceId,
		ThreadId:    v.ThreadId,
		MessageId:   v.MessageId,
		ChunkIndex:  v.ChunkIndex,
		Role:        v.Role,
		Content:     v.Document,
		Embedding:   v.EmbeddingValue.Slice(),
		CreatedAt:   v.CreatedAt,
	}
}

func (m *VectorRecordMapper) ToModel(v *entity.VectorRecord) *model.VectorRecord {
	if v == nil {
		return nil
	}
	return &model.VectorRecord{
		Id:             v.Id,
		WorkspaceId:    v.WorkspaceId,
		ThreadId:       v.ThreadId,
		MessageId:      v.MessageId,
		ChunkIndex:     v.ChunkIndex,
		Role:           v.Role,
		Document:       v.Content,
		EmbeddingValue: pgvector.NewVector(v.Embedding),
		CreatedAt:      v.CreatedAt,
	}
}
