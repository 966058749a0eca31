package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/repository/contract"

	"github.com/philippgille/chromem-go"
)

const (
	metaWorkspace = "workspace_id"
	metaThread    = "thread_id"
	metaMessage   = "message_id"
	metaRole      = "role"
	metaChunk     = "chunk_index"
	metaCreatedAt = "created_at"
)

// VectorIndex keeps one chromem collection per workspace. Thread scoping is
// a metadata filter inside the collection.
type VectorIndex struct {
	db          *chromem.DB
	collections sync.Map // collection name -> *chromem.Collection
}

var _ contract.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex persists to path when it is non-empty, otherwise stays in memory.
func NewVectorIndex(path string) (*VectorIndex, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path != "" {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem store at %s: %w", path, err)
		}
	} else {
		db = chromem.NewDB()
	}
	return &VectorIndex{db: db}, nil
}

func collectionName(workspaceID string) string {
	return "ws_" + workspaceID
}

// embeddings are always supplied by the caller, so the collection never needs
// its own embedding function.
func noEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("vector index does not embed text")
}

func (v *VectorIndex) collection(workspaceID string, create bool) (*chromem.Collection, error) {
	name := collectionName(workspaceID)
	if col, ok := v.collections.Load(name); ok {
		return col.(*chromem.Collection), nil
	}

	if col := v.db.GetCollection(name, noEmbed); col != nil {
		v.collections.Store(name, col)
		return col, nil
	}
	if !create {
		return nil, nil
	}

	col, err := v.db.GetOrCreateCollection(name, nil, noEmbed)
	if err != nil {
		return nil, err
	}
	v.collections.Store(name, col)
	return col, nil
}

func (v *VectorIndex) Upsert(ctx context.Context, record *entity.VectorRecord) error {
	if len(record.Embedding) != constant.EmbeddingDimension {
		return fmt.Errorf("vector record %s: dimension %d, want %d", record.Id, len(record.Embedding), constant.EmbeddingDimension)
	}

	col, err := v.collection(record.WorkspaceId, true)
	if err != nil {
		return err
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return col.AddDocument(ctx, chromem.Document{
		ID:        record.Id,
		Content:   record.Content,
		Embedding: record.Embedding,
		Metadata: map[string]string{
			metaWorkspace: record.WorkspaceId,
			metaThread:    record.ThreadId,
			metaMessage:   record.MessageId,
			metaRole:      record.Role,
			metaChunk:     strconv.Itoa(record.ChunkIndex),
			metaCreatedAt: createdAt.Format(time.RFC3339Nano),
		},
	})
}

func (v *VectorIndex) Search(ctx context.Context, embedding []float32, scope entity.VectorScope, limit int) ([]*entity.ScoredVectorRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	if len(embedding) != constant.EmbeddingDimension {
		return nil, fmt.Errorf("query embedding: dimension %d, want %d", len(embedding), constant.EmbeddingDimension)
	}

	col, err := v.collection(scope.WorkspaceId, false)
	if err != nil {
		return nil, err
	}
	if col == nil || col.Count() == 0 {
		return []*entity.ScoredVectorRecord{}, nil
	}

	// chromem rejects nResults larger than the collection.
	n := limit
	if count := col.Count(); n > count {
		n = count
	}

	var where map[string]string
	if !scope.AllThreads {
		where = map[string]string{metaThread: scope.ThreadId}
	}

	results, err := col.QueryEmbedding(ctx, embedding, n, where, nil)
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredVectorRecord, 0, len(results))
	for _, res := range results {
		scored = append(scored, &entity.ScoredVectorRecord{
			Record:     recordFromResult(res),
			Similarity: clamp(float64(res.Similarity)),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	return scored, nil
}

func (v *VectorIndex) DeleteByScope(ctx context.Context, scope entity.VectorScope) error {
	col, err := v.collection(scope.WorkspaceId, false)
	if err != nil || col == nil {
		return err
	}
	where := map[string]string{metaWorkspace: scope.WorkspaceId}
	if !scope.AllThreads {
		where[metaThread] = scope.ThreadId
	}
	return col.Delete(ctx, where, nil)
}

func (v *VectorIndex) DeleteByMessage(ctx context.Context, messageID string) error {
	var firstErr error
	for _, col := range v.db.ListCollections() {
		if col.Count() == 0 {
			continue
		}
		if err := col.Delete(ctx, map[string]string{metaMessage: messageID}, nil); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func recordFromResult(res chromem.Result) *entity.VectorRecord {
	chunk, _ := strconv.Atoi(res.Metadata[metaChunk])
	createdAt, _ := time.Parse(time.RFC3339Nano, res.Metadata[metaCreatedAt])
	return &entity.VectorRecord{
		Id:          res.ID,
		WorkspaceId: res.Metadata[metaWorkspace],
		ThreadId:    res.Metadata[metaThread],
		MessageId:   res.Metadata[metaMessage],
		ChunkIndex:  chunk,
		Role:        res.Metadata[metaRole],
		Content:     res.Content,
		Embedding:   res.Embedding,
		CreatedAt:   createdAt,
	}
}

func clamp(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
