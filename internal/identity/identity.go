// Package identity defines the per-event records the moderation engine
// operates on: the chat member being evaluated, the chat the event came
// from, and the two inbound event kinds. All of them are immutable
// snapshots owned by the transport for the lifetime of one event.
package identity

// ChatType is the platform chat classification.
type ChatType string

const (
	ChatPrivate    ChatType = "private"
	ChatGroup      ChatType = "group"
	ChatSupergroup ChatType = "supergroup"
	ChatChannel    ChatType = "channel"
)

// Member status values carried by membership events. The engine only acts
// on StatusMember (a join transition).
const (
	StatusMember        = "member"
	StatusLeft          = "left"
	StatusKicked        = "kicked"
	StatusAdministrator = "administrator"
	StatusCreator       = "creator"
)

// Identity describes one chat participant. Any of the name fields may be
// empty; the ID is the only field guaranteed to be present and stable.
type Identity struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

// ChatContext describes the chat an event originated in. Title is empty
// for private chats.
type ChatContext struct {
	ID    int64
	Title string
	Type  ChatType
}

// MessageEvent is an inbound chat message to be evaluated.
type MessageEvent struct {
	From      Identity
	Chat      ChatContext
	MessageID int64
	Text      string
}

// MembershipEvent is an inbound member-status transition.
type MembershipEvent struct {
	Member    Identity
	Chat      ChatContext
	NewStatus string
}

// IsJoin reports whether the transition is a join, the only membership
// transition the engine acts on.
func (e MembershipEvent) IsJoin() bool {
	return e.NewStatus == StatusMember
}
