package entity

import "strings"

type Profile struct {
	Id           string
	Email        string
	FullName     string
	Username     string
	ProfileImage *string
	IsPrivate    bool
}

// DisplayName falls back from full name to username to the email local part.
func (p *Profile) DisplayName() string {
	switch {
	case strings.TrimSpace(p.FullName) != "":
		return p.FullName
	case strings.TrimSpace(p.Username) != "":
		return p.Username
	case p.Email != "":
		if at := strings.Index(p.Email, "@"); at > 0 {
			return p.Email[:at]
		}
		return p.Email
	default:
		return p.Id
	}
}

// MaskedName is what other users see for a private profile in history and prompts.
func MaskedName(userID string) string {
	suffix := userID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return "User-" + suffix
}
