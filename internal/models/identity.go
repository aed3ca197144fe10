package models

// Identity is who a request acts for: an authenticated user, or a guest
// identified only by a generated id.
type Identity struct {
	UserID  string
	GuestID string
}

// IsGuest reports whether no authenticated user is present.
func (i Identity) IsGuest() bool {
	return i.UserID == ""
}

// Key identifies the identity for in-process bookkeeping such as live quiz sessions.
func (i Identity) Key() string {
	if i.UserID != "" {
		return "user:" + i.UserID
	}
	return "guest:" + i.GuestID
}
