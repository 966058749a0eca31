package history

import (
	"context"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/repository/specification"
	"nexus-chat-be/internal/repository/unitofwork"
	"nexus-chat-be/pkg/store"
)

const DefaultLimit = 30

// ProfileLookup resolves display profiles for a set of user ids.
type ProfileLookup interface {
	Profiles(ctx context.Context, ids []string) map[string]*entity.Profile
}

// Loader reads recent thread history for prompts and the observer window
type Loader struct {
	uowFactory unitofwork.RepositoryFactory
	profiles   ProfileLookup
}

func NewLoader(uowFactory unitofwork.RepositoryFactory, profiles ProfileLookup) *Loader {
	return &Loader{
		uowFactory: uowFactory,
		profiles:   profiles,
	}
}

// Recent returns the last limit messages of the thread visible to viewerID,
// oldest first, leaving out excludeID (the message being answered). Globally
// deleted messages are skipped.
func (l *Loader) Recent(ctx context.Context, workspaceID, threadID, viewerID, excludeID string, limit int) ([]*entity.Message, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	uow := l.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.ByThread{WorkspaceID: workspaceID, ThreadID: threadID},
		specification.NotDeletedGlobally{},
		specification.ExcludeID{ID: excludeID},
	}
	if viewerID != "" {
		specs = append(specs, specification.VisibleTo{UserID: viewerID})
	}
	specs = append(specs,
		specification.Chronological{Desc: true},
		specification.Pagination{Limit: limit},
	)

	messages, err := uow.MessageRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Turns converts messages into prompt turns. Private senders are masked for
// everyone except viewerID.
func (l *Loader) Turns(ctx context.Context, messages []*entity.Message, viewerID string) []store.Turn {
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.Role == constant.ChatMessageRoleUser {
			ids = append(ids, m.SenderId)
		}
	}
	profiles := l.profiles.Profiles(ctx, ids)

	turns := make([]store.Turn, 0, len(messages))
	for _, m := range messages {
		turn := store.Turn{Role: m.Role, Content: m.Content, SenderID: m.SenderId}
		if m.Role == constant.ChatMessageRoleUser {
			turn.Sender = SenderName(m, profiles[m.SenderId], viewerID)
		}
		turns = append(turns, turn)
	}
	return turns
}

// SenderName is the name viewerID sees for the sender of m.
func SenderName(m *entity.Message, profile *entity.Profile, viewerID string) string {
	if profile != nil && profile.IsPrivate && m.SenderId != viewerID {
		return entity.MaskedName(m.SenderId)
	}
	if m.SenderDisplayName != "" {
		return m.SenderDisplayName
	}
	if profile != nil {
		return profile.DisplayName()
	}
	return entity.MaskedName(m.SenderId)
}

// CountAssistant counts assistant messages in the window.
func CountAssistant(messages []*entity.Message) int {
	n := 0
	for _, m := range messages {
		if m.Role == constant.ChatMessageRoleAssistant {
			n++
		}
	}
	return n
}

// Texts returns message contents, oldest first.
func Texts(messages []*entity.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Content
	}
	return out
}
