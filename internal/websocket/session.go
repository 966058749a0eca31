package websocket

import (
	"strings"

	"nexus-chat-be/internal/entity"

	"github.com/google/uuid"
)

// Session is the per-connection identity. It lives exactly as long as the
// connection. Identity fields never change after NewSession.
type Session struct {
	ConnectionID string
	UserID       string
	DisplayName  string
	Image        *string
	IsPrivate    bool
	// Alias is generated once per connection and shown to other viewers when
	// the user is private.
	Alias string

	// guarded by the hub lock
	rooms map[string]bool
}

func NewSession(profile *entity.Profile) *Session {
	connectionID := uuid.NewString()
	return &Session{
		ConnectionID: connectionID,
		UserID:       profile.Id,
		DisplayName:  profile.DisplayName(),
		Image:        profile.ProfileImage,
		IsPrivate:    profile.IsPrivate,
		Alias:        "User-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4]),
		rooms:        make(map[string]bool),
	}
}

// Author renders the session as a message author.
func (s *Session) Author() entity.Author {
	return entity.Author{
		UserID:      s.UserID,
		DisplayName: s.DisplayName,
		Image:       s.Image,
		IsPrivate:   s.IsPrivate,
		Alias:       s.Alias,
	}
}

// VisibleName is what other room members see for this session.
func (s *Session) VisibleName() string {
	if s.IsPrivate {
		return s.Alias
	}
	return s.DisplayName
}
