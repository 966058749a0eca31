package entity

import "time"

type VectorRecord struct {
	Id          string
	WorkspaceId string
	ThreadId    string
	MessageId   string
	ChunkIndex  int
	Role        string
	Content     string
	Embedding   []float32
	CreatedAt   time.Time
}

type ScoredVectorRecord struct {
	Record     *VectorRecord
	Similarity float64
}

// VectorScope restricts a search or a cascade delete. ThreadId is required
// unless AllThreads widens the scope to the whole workspace.
type VectorScope struct {
	WorkspaceId string
	ThreadId    string
	AllThreads  bool
}
