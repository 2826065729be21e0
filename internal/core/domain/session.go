package domain

import "time"

// SessionState is the lifecycle state of the client session.
//
//	Unknown ──restore ok──▶ Authenticated ──logout / 401──▶ Anonymous
//	   └────restore fail──▶ Anonymous
type SessionState int

const (
	SessionUnknown SessionState = iota
	SessionAnonymous
	SessionAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case SessionAnonymous:
		return "anonymous"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is the client's view of the authenticated identity. CoinBalance is a
// cached copy of the backend value and is only advisory.
type Session struct {
	ID          string    `json:"id" bson:"id"`
	DisplayName string    `json:"name" bson:"name"`
	Email       string    `json:"email" bson:"email"`
	AvatarRef   string    `json:"photoUrl,omitempty" bson:"photo_url,omitempty"`
	Role        Role      `json:"role" bson:"role"`
	CoinBalance int       `json:"coins" bson:"coins"`
	IssuedAt    time.Time `json:"issuedAt" bson:"issued_at"`

	// PendingRoleSelection is set for first-time external identities until
	// the user has picked a role.
	PendingRoleSelection bool `json:"pendingRoleSelection,omitempty" bson:"pending_role_selection,omitempty"`
	// Optimistic marks a balance that was patched locally and not yet
	// confirmed by the backend.
	Optimistic bool `json:"-" bson:"-"`
}

// Clone returns a copy that can be handed out without sharing state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// PersistedCredential is what survives a restart: the bearer token and the
// session snapshot it was issued with. The two are written and cleared together.
type PersistedCredential struct {
	Token    string    `json:"token" bson:"token"`
	Snapshot Session   `json:"snapshot" bson:"snapshot"`
	SavedAt  time.Time `json:"savedAt" bson:"saved_at"`
}

// Complete reports whether both halves of the pair are present.
func (p PersistedCredential) Complete() bool {
	return p.Token != "" && p.Snapshot.ID != ""
}
