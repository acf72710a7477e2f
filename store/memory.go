package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/chatmodel"
	"github.com/effective-security/agentd/pkg/llms"
)

type chatState struct {
	info       ChatInfo
	messages   []llms.Message
	iterations int
}

type inMemory struct {
	mu      sync.RWMutex
	storage map[string]*chatState
}

func NewMemoryStore() MessageStore {
	return &inMemory{}
}

func (m *inMemory) Messages(ctx context.Context) []llms.Message {
	chatID := chatmodel.GetChatID(ctx)
	if chatID == "" {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.storage[chatID]
	if st == nil {
		return nil
	}
	return slices.Clone(st.messages)
}

func (m *inMemory) Add(ctx context.Context, msg llms.Message) error {
	chatID := chatmodel.GetChatID(ctx)
	if chatID == "" {
		return errors.WithStack(chatmodel.ErrInvalidChatContext)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.chat(chatID)
	st.messages = append(st.messages, msg)
	st.info.UpdatedAt = time.Now()
	return nil
}

func (m *inMemory) Reset(ctx context.Context) error {
	chatID := chatmodel.GetChatID(ctx)
	if chatID == "" {
		return errors.WithStack(chatmodel.ErrInvalidChatContext)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage != nil {
		delete(m.storage, chatID)
	}
	return nil
}

func (m *inMemory) BumpIteration(ctx context.Context) (int, error) {
	chatID := chatmodel.GetChatID(ctx)
	if chatID == "" {
		return 0, errors.WithStack(chatmodel.ErrInvalidChatContext)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.chat(chatID)
	st.iterations++
	return st.iterations, nil
}

func (m *inMemory) ResetIterations(ctx context.Context) error {
	chatID := chatmodel.GetChatID(ctx)
	if chatID == "" {
		return errors.WithStack(chatmodel.ErrInvalidChatContext)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if st := m.storage[chatID]; st != nil {
		st.iterations = 0
	}
	return nil
}

func (m *inMemory) Iterations(ctx context.Context) int {
	chatID := chatmodel.GetChatID(ctx)
	if chatID == "" {
		return 0
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.storage[chatID]
	if st == nil {
		return 0
	}
	return st.iterations
}

func (m *inMemory) UpdateChat(ctx context.Context, title string, meta map[string]any) (*ChatInfo, error) {
	chatID := chatmodel.GetChatID(ctx)
	if chatID == "" {
		return nil, errors.WithStack(chatmodel.ErrInvalidChatContext)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.chat(chatID)
	if title != "" {
		st.info.Title = title
	}
	if meta != nil {
		st.info.Metadata = meta
	}
	st.info.UpdatedAt = time.Now()

	info := st.info
	return &info, nil
}

func (m *inMemory) GetChatInfo(ctx context.Context, chatID string) (*ChatInfo, error) {
	if chatID == "" {
		chatID = chatmodel.GetChatID(ctx)
	}
	if chatID == "" {
		return nil, errors.WithStack(chatmodel.ErrInvalidChatContext)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.storage[chatID]
	if st == nil {
		return nil, errors.Newf("chat not found: %s", chatID)
	}
	info := st.info
	return &info, nil
}

func (m *inMemory) ListChats(ctx context.Context) ([]string, error) {
	if chatmodel.GetChatID(ctx) == "" {
		return nil, errors.WithStack(chatmodel.ErrInvalidChatContext)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]string, 0, len(m.storage))
	for chatID := range m.storage {
		res = append(res, chatID)
	}
	slices.Sort(res)
	return res, nil
}

func (m *inMemory) Snapshot(ctx context.Context) (*ChatSnapshot, error) {
	chatID := chatmodel.GetChatID(ctx)
	if chatID == "" {
		return nil, errors.WithStack(chatmodel.ErrInvalidChatContext)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.storage[chatID]
	if st == nil {
		return &ChatSnapshot{
			Info: ChatInfo{ChatID: chatID},
		}, nil
	}
	return &ChatSnapshot{
		Info:       st.info,
		Messages:   slices.Clone(st.messages),
		Iterations: st.iterations,
	}, nil
}

// chat returns the chat state, creating it on first use.
// The caller must hold the write lock.
func (m *inMemory) chat(chatID string) *chatState {
	if m.storage == nil {
		m.storage = make(map[string]*chatState)
	}
	st := m.storage[chatID]
	if st == nil {
		now := time.Now()
		st = &chatState{
			info: ChatInfo{
				ChatID:    chatID,
				CreatedAt: now,
				UpdatedAt: now,
			},
		}
		m.storage[chatID] = st
	}
	return st
}
