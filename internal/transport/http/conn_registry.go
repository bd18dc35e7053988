package http

import (
	"sync"

	"trivia-session-service/internal/domain"
)

// ConnRegistry maps connection ids to per-connection outbound buffers. It
// implements app.Sender; events for unknown connections are dropped, which
// covers kicked and departed players racing late broadcasts.
type ConnRegistry struct {
	mu    sync.RWMutex
	conns map[string]chan domain.Event
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{conns: make(map[string]chan domain.Event)}
}

// Register creates the outbound buffer for a new connection.
func (c *ConnRegistry) Register(connID string) <-chan domain.Event {
	ch := make(chan domain.Event, 32)
	c.mu.Lock()
	c.conns[connID] = ch
	c.mu.Unlock()
	return ch
}

// Unregister drops the connection. The buffer is never closed; the writer
// goroutine exits through its own done signal.
func (c *ConnRegistry) Unregister(connID string) {
	c.mu.Lock()
	delete(c.conns, connID)
	c.mu.Unlock()
}

// Send queues an event without blocking. When the buffer is full the oldest
// event is dropped so a slow client cannot stall a room broadcast.
func (c *ConnRegistry) Send(connID string, event domain.Event) {
	c.mu.RLock()
	ch, ok := c.conns[connID]
	c.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case ch <- event:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}
