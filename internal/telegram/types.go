// Package telegram is the thin boundary to the platform: wire types for
// inbound updates, an HTTP client for the outbound Bot API methods the
// engine needs, and a long-poll loop for single-process deployments.
package telegram

import (
	"strings"

	"github.com/namegate/namegate/internal/identity"
)

// Update is one inbound platform event. Exactly one of the payload fields
// is set per update; the rest are nil.
type Update struct {
	UpdateID   int64              `json:"update_id"`
	Message    *Message           `json:"message,omitempty"`
	ChatMember *ChatMemberUpdated `json:"chat_member,omitempty"`
}

// Message is a chat message payload.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

// User is a platform account.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat is the conversation an update belongs to.
type Chat struct {
	ID    int64  `json:"id"`
	Title string `json:"title,omitempty"`
	Type  string `json:"type"`
}

// ChatMemberUpdated is a member-status transition payload.
type ChatMemberUpdated struct {
	Chat          Chat       `json:"chat"`
	From          User       `json:"from"`
	NewChatMember ChatMember `json:"new_chat_member"`
}

// ChatMember pairs a user with their status in a chat.
type ChatMember struct {
	User   User   `json:"user"`
	Status string `json:"status"`
}

// Identity converts the wire user into the engine's identity record.
func (u User) Identity() identity.Identity {
	return identity.Identity{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

// Context converts the wire chat into the engine's chat record.
func (c Chat) Context() identity.ChatContext {
	return identity.ChatContext{
		ID:    c.ID,
		Title: c.Title,
		Type:  identity.ChatType(c.Type),
	}
}

// Command extracts a leading bot command ("/add_restricted_name") and its
// argument string from message text. The bot-mention suffix form
// "/cmd@BotName" is accepted. Returns ("", "") when the text is not a
// command.
func (m *Message) Command() (cmd, args string) {
	text := strings.TrimSpace(m.Text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}

	cmd, args, _ = strings.Cut(text, " ")
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	return cmd, strings.TrimSpace(args)
}
