package app

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"trivia-session-service/internal/domain"
)

// MessageStore persists topic-chat messages. The backing store is external
// to the engine; redis and in-memory implementations ship under infra.
type MessageStore interface {
	Append(ctx context.Context, msg domain.ChatMessage) error
	History(ctx context.Context, topic string, limit int) ([]domain.ChatMessage, error)
}

// ChatService runs the side chat channel: per-topic subscriptions, history
// replay on join, sanitized persisted messages fanned out to subscribers.
type ChatService struct {
	store        MessageStore
	sender       Sender
	policy       *bluemonday.Policy
	historyLimit int
	now          func() time.Time

	mu     sync.Mutex
	topics map[string]map[string]struct{}
	conns  map[string]map[string]struct{}
}

func NewChatService(store MessageStore, sender Sender, historyLimit int) *ChatService {
	return &ChatService{
		store:        store,
		sender:       sender,
		policy:       bluemonday.StrictPolicy(),
		historyLimit: historyLimit,
		now:          time.Now,
		topics:       make(map[string]map[string]struct{}),
		conns:        make(map[string]map[string]struct{}),
	}
}

// JoinTopic subscribes the connection and replays the recent backlog to it,
// oldest first.
func (c *ChatService) JoinTopic(ctx context.Context, connID, topic string) {
	c.mu.Lock()
	if c.topics[topic] == nil {
		c.topics[topic] = make(map[string]struct{})
	}
	c.topics[topic][connID] = struct{}{}
	if c.conns[connID] == nil {
		c.conns[connID] = make(map[string]struct{})
	}
	c.conns[connID][topic] = struct{}{}
	c.mu.Unlock()

	history, err := c.store.History(ctx, topic, c.historyLimit)
	if err != nil {
		log.Printf("chat: history for topic %q: %v", topic, err)
		return
	}
	if history == nil {
		history = []domain.ChatMessage{}
	}
	c.sender.Send(connID, domain.Event{Type: domain.EventChatHistory, Payload: history})
}

// LeaveTopic unsubscribes the connection from one topic.
func (c *ChatService) LeaveTopic(connID, topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.topics[topic], connID)
	if len(c.topics[topic]) == 0 {
		delete(c.topics, topic)
	}
	delete(c.conns[connID], topic)
}

// Drop unsubscribes a disconnected connection from every topic.
func (c *ChatService) Drop(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for topic := range c.conns[connID] {
		delete(c.topics[topic], connID)
		if len(c.topics[topic]) == 0 {
			delete(c.topics, topic)
		}
	}
	delete(c.conns, connID)
}

// SendMessage sanitizes, persists, and fans out one chat message. Messages
// that are empty after sanitization are dropped, as are messages that fail
// to persist.
func (c *ChatService) SendMessage(ctx context.Context, from domain.Identity, topic, message string) {
	clean := strings.TrimSpace(c.policy.Sanitize(message))
	if clean == "" {
		return
	}

	msg := domain.ChatMessage{
		SenderID:       from.UserID,
		SenderNickname: from.Nickname,
		Message:        clean,
		Topic:          topic,
		Timestamp:      c.now(),
	}
	if err := c.store.Append(ctx, msg); err != nil {
		log.Printf("chat: persist message in topic %q: %v", topic, err)
		return
	}

	ev := domain.Event{Type: domain.EventNewMessage, Payload: msg}
	c.mu.Lock()
	subscribers := make([]string, 0, len(c.topics[topic]))
	for connID := range c.topics[topic] {
		subscribers = append(subscribers, connID)
	}
	c.mu.Unlock()
	for _, connID := range subscribers {
		c.sender.Send(connID, ev)
	}
}
