package memory

import (
	"context"
	"sync"

	"trivia-session-service/internal/domain"
)

// ChatStore keeps chat history in memory, trimmed to a fixed backlog per
// topic. It implements app.MessageStore for setups without redis.
type ChatStore struct {
	backlog int
	mu      sync.RWMutex
	topics  map[string][]domain.ChatMessage
}

func NewChatStore(backlog int) *ChatStore {
	return &ChatStore{
		backlog: backlog,
		topics:  make(map[string][]domain.ChatMessage),
	}
}

func (s *ChatStore) Append(_ context.Context, msg domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := append(s.topics[msg.Topic], msg)
	if len(msgs) > s.backlog {
		msgs = msgs[len(msgs)-s.backlog:]
	}
	s.topics[msg.Topic] = msgs
	return nil
}

// History returns up to limit messages for the topic, oldest first.
func (s *ChatStore) History(_ context.Context, topic string, limit int) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.topics[topic]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}
