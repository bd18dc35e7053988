package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"trivia-session-service/internal/domain"
)

// ChatStore persists topic-chat history in Redis: one list per topic,
// newest first, trimmed to a fixed backlog.
type ChatStore struct {
	client  *redis.Client
	backlog int
}

func NewChatStore(client *redis.Client, backlog int) *ChatStore {
	return &ChatStore{client: client, backlog: backlog}
}

func (s *ChatStore) Append(ctx context.Context, msg domain.ChatMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := s.key(msg.Topic)
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, int64(s.backlog)-1)
	_, err = pipe.Exec(ctx)
	return err
}

// History returns up to limit messages for the topic in chronological
// order.
func (s *ChatStore) History(ctx context.Context, topic string, limit int) ([]domain.ChatMessage, error) {
	raws, err := s.client.LRange(ctx, s.key(topic), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	msgs := make([]domain.ChatMessage, 0, len(raws))
	// LRange yields newest first; reverse into chronological order.
	for i := len(raws) - 1; i >= 0; i-- {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(raws[i]), &msg); err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (s *ChatStore) key(topic string) string {
	return "chat:" + topic + ":messages"
}
