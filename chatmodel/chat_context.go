package chatmodel

import (
	"context"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xdb/pkg/flake"
	"github.com/google/uuid"
)

var ErrInvalidChatContext = errors.New("invalid chat context")

// ChatContext is the per-session context for the chat agent.
// It carries the chat ID, the run ID and optional app data.
type ChatContext interface {
	GetChatID() string
	SetChatID(chatID string)
	// RunID returns the unique ID of the current run
	RunID() string
	// AppData returns immutable app data
	AppData() any
	// GetMetadata retrieves metadata by key
	GetMetadata(key string) (value any, ok bool)
	// SetMetadata sets metadata by key
	SetMetadata(key string, value any)
}

type chatContext struct {
	chatID   string
	runID    string
	metadata sync.Map
	appData  any
}

func (c *chatContext) GetChatID() string {
	return c.chatID
}

func (c *chatContext) SetChatID(chatID string) {
	c.chatID = chatID
}

func (c *chatContext) RunID() string {
	return c.runID
}

func (c *chatContext) AppData() any {
	return c.appData
}

func (c *chatContext) GetMetadata(key string) (value any, ok bool) {
	return c.metadata.Load(key)
}

func (c *chatContext) SetMetadata(key string, value any) {
	c.metadata.Store(key, value)
}

func NewChatContext(chatID string, appData any) ChatContext {
	return &chatContext{
		chatID:   values.StringsCoalesce(chatID, NewChatID()),
		runID:    uuid.NewString(),
		appData:  appData,
		metadata: sync.Map{},
	}
}

type contextKey int

const (
	keyContext contextKey = iota
)

// WithChatContext returns a new context with ChatContext value
func WithChatContext(ctx context.Context, chatCtx ChatContext) context.Context {
	return context.WithValue(ctx, keyContext, chatCtx)
}

// GetChatContext retrieves the ChatContext from the context
func GetChatContext(ctx context.Context) ChatContext {
	if v, ok := ctx.Value(keyContext).(ChatContext); ok {
		return v
	}
	return nil
}

// GetChatID retrieves the chat ID from the provided context.
// If the context does not contain a ChatContext, it returns an empty string.
func GetChatID(ctx context.Context) string {
	if v, ok := ctx.Value(keyContext).(ChatContext); ok {
		return v.GetChatID()
	}
	return ""
}

// GetRunID retrieves the run ID from the provided context.
// If the context does not contain a ChatContext, it returns an empty string.
func GetRunID(ctx context.Context) string {
	if v, ok := ctx.Value(keyContext).(ChatContext); ok {
		return v.RunID()
	}
	return ""
}

// SetChatID sets the chat ID on the ChatContext stored in the context.
// It returns ErrInvalidChatContext when the context has no ChatContext.
func SetChatID(ctx context.Context, chatID string) (context.Context, error) {
	chatCtx := GetChatContext(ctx)
	if chatCtx == nil {
		return ctx, errors.WithStack(ErrInvalidChatContext)
	}
	chatCtx.SetChatID(chatID)
	return ctx, nil
}

// NewFromContext returns a fresh background context preserving the
// ChatContext from the provided one, detached from its cancellation.
func NewFromContext(ctx context.Context) context.Context {
	res := context.Background()
	if chatCtx := GetChatContext(ctx); chatCtx != nil {
		res = WithChatContext(res, chatCtx)
	}
	return res
}

// NewChatID generates a new chat ID using the flake ID generator.
func NewChatID() string {
	return strconv.FormatUint(flake.DefaultIDGenerator.NextID(), 10)
}
