package session

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory Store used when SQLite cannot be opened and in
// tests. Sessions are deep-copied on the way in and out.
type MemStore struct {
	mu    sync.Mutex
	chats map[string]ChatSession
}

func NewMemStore() *MemStore {
	return &MemStore{chats: make(map[string]ChatSession)}
}

func (s *MemStore) List(ctx context.Context, userID string) ([]ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ChatSession
	for _, chat := range s.chats {
		if chat.UserID == userID {
			out = append(out, copyChat(chat))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, userID, id string) (*ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[id]
	if !ok || chat.UserID != userID {
		return nil, ErrNotFound
	}
	c := copyChat(chat)
	return &c, nil
}

func (s *MemStore) Upsert(ctx context.Context, chat *ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chat.ID] = copyChat(*chat)
	return nil
}

func (s *MemStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chat, ok := s.chats[id]; ok && chat.UserID == userID {
		delete(s.chats, id)
	}
	return nil
}

func copyChat(chat ChatSession) ChatSession {
	out := chat
	out.Messages = append([]Message(nil), chat.Messages...)
	return out
}
