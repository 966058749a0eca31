package entity

// Author is how a message sender is presented to room members. Alias is the
// per-connection pseudonym shown to other viewers when IsPrivate is set.
type Author struct {
	UserID      string
	DisplayName string
	Image       *string
	IsPrivate   bool
	Alias       string
}

// ViewFor returns the name and image viewerID should see.
func (a Author) ViewFor(viewerID string) (string, *string) {
	if a.IsPrivate && viewerID != a.UserID {
		alias := a.Alias
		if alias == "" {
			alias = MaskedName(a.UserID)
		}
		return alias, nil
	}
	return a.DisplayName, a.Image
}
