package history

import (
	"testing"

	"nexus-chat-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestSenderNameMasksPrivateProfiles(t *testing.T) {
	m := &entity.Message{SenderId: "user-abcd1234", SenderDisplayName: "Carol", Role: "user"}
	private := &entity.Profile{Id: "user-abcd1234", FullName: "Carol", IsPrivate: true}

	assert.Equal(t, "User-1234", SenderName(m, private, "someone-else"))
	assert.Equal(t, "Carol", SenderName(m, private, "user-abcd1234"))
	assert.Equal(t, "Carol", SenderName(m, &entity.Profile{Id: "user-abcd1234"}, "someone-else"))

	m.SenderDisplayName = ""
	assert.Equal(t, "dave", SenderName(m, &entity.Profile{Id: "x", Email: "dave@example.com"}, "v"))
	assert.Equal(t, "User-1234", SenderName(m, nil, "v"))
}

func TestCountAssistant(t *testing.T) {
	msgs := []*entity.Message{
		{Role: "assistant"}, {Role: "user"}, {Role: "assistant"}, {Role: "user"},
	}
	assert.Equal(t, 2, CountAssistant(msgs))
	assert.Equal(t, 0, CountAssistant(msgs[1:2]))
	assert.Equal(t, 0, CountAssistant(nil))
}
