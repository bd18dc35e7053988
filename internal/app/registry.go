package app

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"trivia-session-service/internal/domain"
)

// Registry is the authoritative table of live rooms, keyed by 6-digit code.
// It is the sole owner of room lifetimes: exactly one room per code at a
// time, codes never reused while their room is live.
type Registry struct {
	sched   Scheduler
	sender  Sender
	prepare time.Duration
	answer  time.Duration
	now     func() time.Time

	mu    sync.RWMutex
	rooms map[string]*Room
	rnd   *rand.Rand
}

func NewRegistry(sched Scheduler, sender Sender, prepare, answer time.Duration) *Registry {
	return NewRegistryWithClock(sched, sender, prepare, answer, time.Now)
}

// NewRegistryWithClock allows deterministic timestamps in tests.
func NewRegistryWithClock(sched Scheduler, sender Sender, prepare, answer time.Duration, now func() time.Time) *Registry {
	return &Registry{
		sched:   sched,
		sender:  sender,
		prepare: prepare,
		answer:  answer,
		now:     now,
		rooms:   make(map[string]*Room),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create generates a fresh code, retrying on collision with a live room,
// and registers a new room in the lobby state with the host as its first
// member.
func (g *Registry) Create(hostID, hostNickname string, opts domain.GameOptions, questions []domain.Question) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := g.generateCodeLocked()
	room := newRoomWithClock(code, hostID, hostNickname, opts, questions, g.sched, g.sender, g.prepare, g.answer, g.now)
	g.rooms[code] = room
	return room
}

func (g *Registry) Get(code string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[code]
	return room, ok
}

// Destroy removes the room. The caller must already have cancelled its
// pending timer (Room.CloseByHost does).
func (g *Registry) Destroy(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, code)
}

// RoomOf finds the room a connection belongs to, if any. Connections are in
// at most one room.
func (g *Registry) RoomOf(playerID string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, room := range g.rooms {
		if room.HasPlayer(playerID) {
			return room, true
		}
	}
	return nil, false
}

// Len reports the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

func (g *Registry) generateCodeLocked() string {
	for {
		code := fmt.Sprintf("%06d", 100000+g.rnd.Intn(900000))
		if _, taken := g.rooms[code]; !taken {
			return code
		}
	}
}
