package service

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/model"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/pkg/metrics"
	"nexus-chat-be/internal/repository/memory"
	"nexus-chat-be/internal/repository/unitofwork"
	"nexus-chat-be/pkg/database"
	"nexus-chat-be/pkg/embedding"
	"nexus-chat-be/pkg/llm"
	"nexus-chat-be/pkg/rag/history"
	msgfactory "nexus-chat-be/pkg/rag/message"
	"nexus-chat-be/pkg/rag/response"
	"nexus-chat-be/pkg/rag/search"
	"nexus-chat-be/pkg/rag/signal"
	"nexus-chat-be/pkg/worker"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type emitted struct {
	kind   string // "message", "room" or "user"
	target string
	event  string
	data   interface{}
	msg    *entity.Message
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []emitted
}

func (b *recordingBroadcaster) BroadcastMessage(msg *entity.Message, author entity.Author) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, emitted{kind: "message", target: msg.RoomID(), event: EventNewMessage, msg: msg})
}

func (b *recordingBroadcaster) EmitToRoom(roomID, event string, data interface{}, exceptUserID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, emitted{kind: "room", target: roomID, event: event, data: data})
}

func (b *recordingBroadcaster) EmitToUser(userID, event string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, emitted{kind: "user", target: userID, event: event, data: data})
}

func (b *recordingBroadcaster) byEvent(event string) []emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []emitted
	for _, e := range b.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

// scriptedLLM answers every call with reply, or blocks until the attempt
// context expires when hang is set.
type scriptedLLM struct {
	mu      sync.Mutex
	reply   string
	hang    bool
	prompts []string
}

func (l *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, history[len(history)-1].Content)
	l.mu.Unlock()
	if l.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return l.reply, nil
}

func (l *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return l.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func (l *scriptedLLM) calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.prompts...)
}

type wordHashEmbedder struct{}

func (wordHashEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	vec := make([]float32, constant.EmbeddingDimension)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, "?,.!'")))
		vec[int(h.Sum32())%len(vec)]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm > 0 {
		for i := range vec {
			vec[i] /= float32(math.Sqrt(norm))
		}
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: vec}}, nil
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	db           *gorm.DB
	uowFactory   unitofwork.RepositoryFactory
	broadcaster  *recordingBroadcaster
	llm          *scriptedLLM
	workspaces   IWorkspaceService
	messages     IMessageService
	orchestrator IChatOrchestrator
	indexer      *search.Indexer
	pool         *worker.Pool
}

func newHarness(t *testing.T, setup llmSetup) *harness {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.PortableModels()...))

	log := logger.NewNopLogger()
	m := metrics.NewNop()
	uowFactory := unitofwork.NewRepositoryFactory(db)
	profiles := NewProfileDirectory(uowFactory, memory.NewProfileCache(time.Minute), log)
	workspaces := NewWorkspaceService(uowFactory, profiles, nil, nil, log)
	factory := msgfactory.NewFactoryWithClock(func() time.Time { return fixedNow })
	broadcaster := &recordingBroadcaster{}
	messages := NewMessageService(uowFactory, workspaces, nil, broadcaster, nil, factory, m, log)

	index, err := memory.NewVectorIndex("")
	require.NoError(t, err)
	emb := wordHashEmbedder{}

	fake := &scriptedLLM{reply: setup.reply, hang: setup.hang}
	generator := response.NewGenerator(fake, setup.config, log)
	pool := worker.NewPool(2, nil)

	orchestrator := NewChatOrchestrator(
		OrchestratorConfig{},
		messages,
		workspaces,
		nil,
		broadcaster,
		signal.NewTriggerPolicy(constant.TriggerModeBoth, "nexus"),
		history.NewLoader(uowFactory, profiles),
		search.NewRetriever(emb, index, log),
		generator,
		factory,
		pool,
		m,
		log,
	)

	seedUsers(t, db)
	return &harness{
		db:           db,
		uowFactory:   uowFactory,
		broadcaster:  broadcaster,
		llm:          fake,
		workspaces:   workspaces,
		messages:     messages,
		orchestrator: orchestrator,
		indexer:      search.NewIndexer(emb, index),
		pool:         pool,
	}
}

type llmSetup struct {
	reply  string
	hang   bool
	config response.Config
}

func replying(text string) llmSetup {
	return llmSetup{reply: text, config: response.DefaultConfig()}
}

func seedUsers(t *testing.T, db *gorm.DB) {
	t.Helper()
	users := []*model.UserProfile{
		{Id: "alice", Email: "alice@example.com", FullName: "Alice"},
		{Id: "bob", Email: "bob@example.com", FullName: "Bob"},
		{Id: "carol-9876", Email: "carol@example.com", FullName: "Carol", IsPrivate: true},
		{Id: "mallory", Email: "mallory@example.com", FullName: "Mallory"},
	}
	for _, u := range users {
		require.NoError(t, db.Create(u).Error)
	}
}

func author(id, name string) entity.Author {
	return entity.Author{UserID: id, DisplayName: name}
}

// teamWorkspace creates a workspace owned by alice with bob as a member.
func (h *harness) teamWorkspace(t *testing.T) *entity.Workspace {
	t.Helper()
	ctx := context.Background()
	ws, err := h.workspaces.Create(ctx, "alice", "Platform")
	require.NoError(t, err)
	_, err = h.workspaces.Join(ctx, ws.Id, "bob")
	require.NoError(t, err)
	return ws
}

// drain waits for every scheduled assistant turn.
func (h *harness) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	abandoned, err := h.pool.Shutdown(ctx)
	require.NoError(t, err)
	require.Zero(t, abandoned)
}
