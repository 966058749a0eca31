package prompt

import (
	"strings"
	"testing"

	"nexus-chat-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput() Input {
	return Input{
		Query:           "what's   the deploy process???",
		UserDisplayName: "Alice",
		Documents: []store.Document{
			{ID: "v1", Content: "Deploys go through   the staging pipeline", Score: 0.9},
			{ID: "v2", Content: "Prod deploys need two approvals", Score: 0.7},
		},
		History: []store.Turn{
			{Role: "user", Sender: "Bob", Content: "hi all"},
			{Role: "assistant", Content: "Hello Bob!!!"},
			{Role: "user", Sender: "User-7f3a", Content: "I'm stuck on the release"},
		},
		Roster: []string{"Alice", "Bob", "User-7f3a"},
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	in := sampleInput()
	first := Assemble(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Assemble(in))
	}
}

func TestBuildRendersBlocks(t *testing.T) {
	out := Assemble(sampleInput())

	assert.Contains(t, out, "- Deploys go through the staging pipeline\n")
	assert.Contains(t, out, "- Alice\n- Bob\n- User-7f3a\n")
	assert.Contains(t, out, "USER (Bob): [small_talk] hi all\n")
	assert.Contains(t, out, "ASSISTANT: [small_talk] Hello Bob!\n")
	assert.Contains(t, out, "USER (User-7f3a): [problem] I'm stuck on the release\n")
	assert.Contains(t, out, "Alice: what's the deploy process?\n")
	assert.Contains(t, out, "exactly SILENT")
	assert.NotContains(t, out, NoContextMarker)
	assert.NotContains(t, out, "<reply_context>")
}

func TestBuildWithoutDocumentsRendersMarker(t *testing.T) {
	in := sampleInput()
	in.Documents = nil
	out := Assemble(in)
	assert.Contains(t, out, "<document_context>\n"+NoContextMarker+"\n</document_context>")
}

func TestReplyContextPrecedesHistory(t *testing.T) {
	in := sampleInput()
	in.ReplyTo = &store.ReplyContext{Sender: "Bob", Content: "we ship on friday"}
	out := Assemble(in)

	reply := strings.Index(out, "<reply_context>")
	history := strings.Index(out, "<chat_history>")
	docs := strings.Index(out, "<document_context>")
	require.NotEqual(t, -1, reply)
	assert.Less(t, docs, reply)
	assert.Less(t, reply, history)
	assert.Contains(t, out, "replies to Bob: we ship on friday")
}

func TestEmptyRosterFallsBackToSpeaker(t *testing.T) {
	in := sampleInput()
	in.Roster = nil
	assert.Contains(t, Assemble(in), "<participants>\n- Alice\n</participants>")
}
