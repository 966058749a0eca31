package service

import (
	"context"
	"testing"
	"time"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/pkg/rag/prompt"
	"nexus-chat-be/pkg/rag/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) thread(t *testing.T, viewer, workspaceID string) []*entity.Message {
	t.Helper()
	msgs, err := h.messages.Range(context.Background(), viewer, workspaceID, constant.DefaultThreadID, nil)
	require.NoError(t, err)
	return msgs
}

func assistantMessages(msgs []*entity.Message) []*entity.Message {
	var out []*entity.Message
	for _, m := range msgs {
		if m.Role == constant.ChatMessageRoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

func seedDeployNote(t *testing.T, h *harness, workspaceID string) {
	t.Helper()
	ctx := context.Background()
	note, err := h.messages.Append(ctx, author("bob", "Bob"), &dto.SendMessageRequest{
		WorkspaceId: workspaceID,
		ThreadId:    constant.DefaultThreadID,
		Content:     "The deploy process runs through the release pipeline after review",
		DisableAI:   true,
	})
	require.NoError(t, err)
	n, err := h.indexer.IndexMessage(ctx, note)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestMentionGetsGroundedReply(t *testing.T) {
	h := newHarness(t, replying("Deploys go through the release pipeline once a change is reviewed."))
	ctx := context.Background()
	ws := h.teamWorkspace(t)
	seedDeployNote(t, h, ws.Id)

	asked, err := h.orchestrator.HandleUserMessage(ctx, author("alice", "Alice"), &dto.SendMessageRequest{
		WorkspaceId: ws.Id,
		ThreadId:    constant.DefaultThreadID,
		Content:     "Nexus, what's the deploy process?",
	})
	require.NoError(t, err)
	h.drain(t)

	prompts := h.llm.calls()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "release pipeline")
	assert.Contains(t, prompts[0], "Alice: Nexus, what's the deploy process?")
	assert.NotContains(t, prompts[0], "- Nexus, what's the deploy process?", "the query is not its own context")

	msgs := h.thread(t, "bob", ws.Id)
	require.Len(t, msgs, 3)
	assert.Equal(t, asked.Id, msgs[1].Id)

	replies := assistantMessages(msgs)
	require.Len(t, replies, 1)
	assert.Equal(t, "Deploys go through the release pipeline once a change is reviewed.", replies[0].Content)
	assert.Equal(t, constant.AssistantSenderID, replies[0].SenderId)
	assert.Equal(t, constant.TriggerModeDirect, replies[0].Metadata["mode"])

	assert.Len(t, h.broadcaster.byEvent(EventNewMessage), 3)
	typing := h.broadcaster.byEvent(EventTyping)
	require.Len(t, typing, 2)
	assert.True(t, typing[0].data.(dto.TypingEvent).IsTyping)
	assert.False(t, typing[1].data.(dto.TypingEvent).IsTyping)
}

func TestGenerationTimeoutDeliversOneApology(t *testing.T) {
	h := newHarness(t, llmSetup{
		hang: true,
		config: response.Config{
			AttemptTimeout:  20 * time.Millisecond,
			MaxAttempts:     2,
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
		},
	})
	ctx := context.Background()
	ws := h.teamWorkspace(t)
	seedDeployNote(t, h, ws.Id)

	_, err := h.orchestrator.HandleUserMessage(ctx, author("alice", "Alice"), &dto.SendMessageRequest{
		WorkspaceId: ws.Id,
		ThreadId:    constant.DefaultThreadID,
		Content:     "Nexus, what's the deploy process?",
	})
	require.NoError(t, err)
	h.drain(t)

	assert.Len(t, h.llm.calls(), 2)

	replies := assistantMessages(h.thread(t, "alice", ws.Id))
	require.Len(t, replies, 1)
	assert.Equal(t, response.ApologyMessage, replies[0].Content)
	assert.Len(t, h.broadcaster.byEvent(EventNewMessage), 3)
}

func TestSilentOutputEmitsNothing(t *testing.T) {
	h := newHarness(t, replying("  SILENT \n"))
	ctx := context.Background()
	ws := h.teamWorkspace(t)

	_, err := h.orchestrator.HandleUserMessage(ctx, author("alice", "Alice"), &dto.SendMessageRequest{
		WorkspaceId: ws.Id,
		ThreadId:    constant.DefaultThreadID,
		Content:     "thanks all",
		TriggerAI:   true,
	})
	require.NoError(t, err)
	h.drain(t)

	assert.Len(t, h.llm.calls(), 1)
	assert.Empty(t, assistantMessages(h.thread(t, "alice", ws.Id)))
	assert.Len(t, h.broadcaster.byEvent(EventNewMessage), 1)
}

func TestPlainChatterStaysQuiet(t *testing.T) {
	h := newHarness(t, replying("should not be sent"))
	ctx := context.Background()
	ws := h.teamWorkspace(t)

	_, err := h.orchestrator.HandleUserMessage(ctx, author("alice", "Alice"), &dto.SendMessageRequest{
		WorkspaceId: ws.Id, ThreadId: constant.DefaultThreadID, Content: "morning team",
	})
	require.NoError(t, err)
	_, err = h.orchestrator.HandleUserMessage(ctx, author("bob", "Bob"), &dto.SendMessageRequest{
		WorkspaceId: ws.Id, ThreadId: constant.DefaultThreadID, Content: "nexus please summarize", DisableAI: true,
	})
	require.NoError(t, err)
	h.drain(t)

	assert.Empty(t, h.llm.calls())
	assert.Empty(t, h.broadcaster.byEvent(EventTyping))
	assert.Len(t, h.thread(t, "alice", ws.Id), 2)
}

func TestObserverInterjectsOnConfusedQuestionLoop(t *testing.T) {
	h := newHarness(t, replying("The build fails because the cache key changed."))
	ctx := context.Background()
	ws := h.teamWorkspace(t)

	for _, m := range []struct{ who, name, text string }{
		{"bob", "Bob", "why is the build failing?"},
		{"alice", "Alice", "not sure, how do we fix it?"},
	} {
		_, err := h.messages.Append(ctx, author(m.who, m.name), &dto.SendMessageRequest{
			WorkspaceId: ws.Id, ThreadId: constant.DefaultThreadID, Content: m.text,
		})
		require.NoError(t, err)
	}

	_, err := h.orchestrator.HandleUserMessage(ctx, author("bob", "Bob"), &dto.SendMessageRequest{
		WorkspaceId: ws.Id, ThreadId: constant.DefaultThreadID, Content: "why does it keep failing?",
	})
	require.NoError(t, err)
	h.drain(t)

	replies := assistantMessages(h.thread(t, "alice", ws.Id))
	require.Len(t, replies, 1)
	assert.Equal(t, constant.TriggerModeObserver, replies[0].Metadata["mode"])
}

func TestMentionOnEmptyIndexSaysNoContext(t *testing.T) {
	h := newHarness(t, replying("I don't have anything on deploys yet."))
	ctx := context.Background()
	ws := h.teamWorkspace(t)

	_, err := h.orchestrator.HandleUserMessage(ctx, author("alice", "Alice"), &dto.SendMessageRequest{
		WorkspaceId: ws.Id,
		ThreadId:    constant.DefaultThreadID,
		Content:     "Nexus, what's the deploy process?",
	})
	require.NoError(t, err)
	h.drain(t)

	prompts := h.llm.calls()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "<document_context>\n"+prompt.NoContextMarker+"\n</document_context>")
	assert.Contains(t, prompts[0], "Alice: Nexus, what's the deploy process?")

	replies := assistantMessages(h.thread(t, "bob", ws.Id))
	require.Len(t, replies, 1)
	assert.Equal(t, "I don't have anything on deploys yet.", replies[0].Content)
}
