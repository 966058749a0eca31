package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type VectorRecord struct {
	Id             string          `gorm:"type:varchar(64);primaryKey"`
	WorkspaceId    string          `gorm:"type:varchar(128);not null;index:idx_vector_records_scope,priority:1"`
	ThreadId       string          `gorm:"type:varchar(128);not null;index:idx_vector_records_scope,priority:2"`
	MessageId      string          `gorm:"type:varchar(64);not null;index"`
	ChunkIndex     int             `gorm:"default:0"`
	Role           string          `gorm:"type:varchar(20);not null"`
	Document       string          `gorm:"type:text;not null"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(384)"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (VectorRecord) TableName() string {
	return "vector_records"
}
