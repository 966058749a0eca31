package search

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/repository/memory"
	"nexus-chat-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bagOfWordsEmbedder hashes words into buckets so texts sharing words are
// similar. Good enough to check ranking and scoping.
type bagOfWordsEmbedder struct {
	dim int
	err error
}

func (e *bagOfWordsEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	if e.err != nil {
		return nil, e.err
	}
	dim := e.dim
	if dim == 0 {
		dim = constant.EmbeddingDimension
	}
	vec := make([]float32, dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, "?,.!")))
		vec[int(h.Sum32())%dim] += 1
	}
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		for i := range vec {
			vec[i] /= sqrt32(norm)
		}
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: vec}}, nil
}

func sqrt32(x float32) float32 {
	z := x
	for i := 0; i < 20; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

func newIndex(t *testing.T) *memory.VectorIndex {
	idx, err := memory.NewVectorIndex("")
	require.NoError(t, err)
	return idx
}

func TestSearchEmptyScopeReturnsEmpty(t *testing.T) {
	r := NewRetriever(&bagOfWordsEmbedder{}, newIndex(t), logger.NewNopLogger())

	docs, err := r.Search(context.Background(), "deploy process", entity.VectorScope{WorkspaceId: "w1", ThreadId: "t1"}, 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSearchIsScopedAndOrdered(t *testing.T) {
	ctx := context.Background()
	emb := &bagOfWordsEmbedder{}
	idx := newIndex(t)
	indexer := NewIndexer(emb, idx)

	msgs := []*entity.Message{
		{Id: "m1", WorkspaceId: "w1", ThreadId: "t1", Role: "user", Content: "the deploy process uses the staging pipeline"},
		{Id: "m2", WorkspaceId: "w1", ThreadId: "t1", Role: "user", Content: "lunch is at noon"},
		{Id: "m3", WorkspaceId: "w1", ThreadId: "t2", Role: "user", Content: "deploy process deploy process"},
		{Id: "m4", WorkspaceId: "w2", ThreadId: "t1", Role: "user", Content: "deploy process for the other team"},
		{Id: "m5", WorkspaceId: "w1", ThreadId: "t1", Role: "user", Content: "   "},
	}
	for _, m := range msgs {
		_, err := indexer.IndexMessage(ctx, m)
		require.NoError(t, err)
	}

	r := NewRetriever(emb, idx, logger.NewNopLogger())
	docs, err := r.Search(ctx, "what is the deploy process?", entity.VectorScope{WorkspaceId: "w1", ThreadId: "t1"}, 5)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "m1", docs[0].Metadata["message_id"])
	assert.GreaterOrEqual(t, docs[0].Score, docs[1].Score)
	for _, d := range docs {
		assert.Equal(t, "t1", d.Metadata["thread_id"])
		assert.GreaterOrEqual(t, d.Score, float32(0))
		assert.LessOrEqual(t, d.Score, float32(1))
	}

	wide, err := r.Search(ctx, "deploy process", entity.VectorScope{WorkspaceId: "w1", AllThreads: true}, 1)
	require.NoError(t, err)
	require.Len(t, wide, 1)
	assert.Equal(t, "m3", wide[0].Metadata["message_id"])
}

func TestSearchFailsFastOnEmbeddingError(t *testing.T) {
	r := NewRetriever(&bagOfWordsEmbedder{err: errors.New("model down")}, newIndex(t), logger.NewNopLogger())
	_, err := r.Search(context.Background(), "anything", entity.VectorScope{WorkspaceId: "w1", ThreadId: "t1"}, 5)
	assert.ErrorContains(t, err, "model down")

	r = NewRetriever(&bagOfWordsEmbedder{dim: 16}, newIndex(t), logger.NewNopLogger())
	_, err = r.Search(context.Background(), "anything", entity.VectorScope{WorkspaceId: "w1", ThreadId: "t1"}, 5)
	assert.ErrorContains(t, err, "dimensions")
}

func TestReindexReplacesChunks(t *testing.T) {
	ctx := context.Background()
	emb := &bagOfWordsEmbedder{}
	idx := newIndex(t)
	indexer := NewIndexer(emb, idx)

	msg := &entity.Message{Id: "m1", WorkspaceId: "w1", ThreadId: "t1", Role: "user", Content: "release on friday"}
	_, err := indexer.IndexMessage(ctx, msg)
	require.NoError(t, err)

	msg.Content = "release moved to monday"
	_, err = indexer.Reindex(ctx, msg)
	require.NoError(t, err)

	r := NewRetriever(emb, idx, logger.NewNopLogger())
	docs, err := r.Search(ctx, "release", entity.VectorScope{WorkspaceId: "w1", ThreadId: "t1"}, 5)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "release moved to monday", docs[0].Content)

	require.NoError(t, indexer.Forget(ctx, "m1"))
	docs, err = r.Search(ctx, "release", entity.VectorScope{WorkspaceId: "w1", ThreadId: "t1"}, 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
