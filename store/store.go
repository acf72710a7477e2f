package store

import (
	"context"
	"time"

	"github.com/effective-security/agentd/pkg/llms"
)

// ChatInfo describes a chat session.
type ChatInfo struct {
	ChatID    string
	Title     string
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatSnapshot is a point-in-time copy of a chat session state.
// Mutating it does not affect the store.
type ChatSnapshot struct {
	Info       ChatInfo
	Messages   []llms.Message
	Iterations int
}

// MessageStore keeps the append-only message log and the iteration counter
// per chat session. The chat is addressed by the ChatContext in the context.
type MessageStore interface {
	// Messages returns a copy of the message log of the chat,
	// or nil when the context has no chat.
	Messages(ctx context.Context) []llms.Message
	// Add appends a message to the chat log.
	Add(ctx context.Context, msg llms.Message) error
	// Reset atomically discards the chat log, the iteration counter and the
	// chat info. The next Add starts a pristine session under the same ID.
	Reset(ctx context.Context) error

	// BumpIteration increments and returns the iteration counter of the chat.
	BumpIteration(ctx context.Context) (int, error)
	// ResetIterations zeroes the iteration counter of the chat, keeping the log.
	// A run counts its own dispatch passes, so it clears the counter on start.
	ResetIterations(ctx context.Context) error
	// Iterations returns the iteration counter of the chat.
	Iterations(ctx context.Context) int

	// UpdateChat creates or updates the chat info.
	UpdateChat(ctx context.Context, title string, meta map[string]any) (*ChatInfo, error)
	// GetChatInfo returns the chat info, chatID defaults to the one in the context.
	GetChatInfo(ctx context.Context, chatID string) (*ChatInfo, error)
	// ListChats returns the known chat IDs.
	ListChats(ctx context.Context) ([]string, error)

	// Snapshot returns a point-in-time copy of the chat state.
	Snapshot(ctx context.Context) (*ChatSnapshot, error)
}
