package events

import "time"

// Event types put on the lifecycle queue. The notifier worker consumes them;
// adding a type only requires the worker to know the subject line.
const (
	UserCreated         = "user.created"
	UserProfileUpdated  = "user.profile_updated"
	UserPasswordChanged = "user.password_changed"
	UserLoginChanged    = "user.login_changed"
	UserRevoked         = "user.revoked"
	UserRestored        = "user.restored"
	UserDeleted         = "user.deleted"
)

// UserEvent is the JSON payload published for every completed mutation of a
// user record. Actor is the already-authenticated identity that performed the
// operation.
type UserEvent struct {
	Type    string            `json:"type"`
	Login   string            `json:"login"`
	Actor   string            `json:"actor"`
	At      time.Time         `json:"at"`
	Details map[string]string `json:"details,omitempty"`
}

func New(eventType, login, actor string) UserEvent {
	return UserEvent{Type: eventType, Login: login, Actor: actor, At: time.Now().UTC()}
}
