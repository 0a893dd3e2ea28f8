package models

// User is the authenticated shopper extracted from a bearer token.
// A nil *User or an empty ID means the request is anonymous.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Token string `json:"-"`
}

// IsAuthenticated reports whether the user carries an id
func (u *User) IsAuthenticated() bool {
	return u != nil && u.ID != ""
}

// CartIdentifier addresses either a user-owned cart or a guest-session cart.
// Exactly one of UserID and SessionID is set; IsGuest is true iff SessionID is the one.
type CartIdentifier struct {
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	IsGuest   bool   `json:"isGuest"`
}

// UserCart returns the identifier of a user-owned cart
func UserCart(userID string) CartIdentifier {
	return CartIdentifier{UserID: userID}
}

// GuestCart returns the identifier of a guest-session cart
func GuestCart(sessionID string) CartIdentifier {
	return CartIdentifier{SessionID: sessionID, IsGuest: true}
}

// Key returns the id used in cart service URLs
func (c CartIdentifier) Key() string {
	if c.IsGuest {
		return c.SessionID
	}
	return c.UserID
}

// MemoKey namespaces Key so a user id can never collide with a session id
func (c CartIdentifier) MemoKey() string {
	if c.IsGuest {
		return "guest:" + c.SessionID
	}
	return "user:" + c.UserID
}

// Valid checks the exactly-one invariant
func (c CartIdentifier) Valid() bool {
	if c.IsGuest {
		return c.SessionID != "" && c.UserID == ""
	}
	return c.UserID != "" && c.SessionID == ""
}

// SessionInfo describes the identity a device would use for its next cart call
type SessionInfo struct {
	UserID     string `json:"userId,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
	IsGuest    bool   `json:"isGuest"`
	HasSession bool   `json:"hasSession"`
}
