package app

import (
	"context"
	"testing"

	"trivia-session-service/internal/domain"
)

type staticQuestionRepo struct {
	sets map[string]domain.QuestionSet
}

func (r *staticQuestionRepo) GetQuestionSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	if set, ok := r.sets[setID]; ok {
		return set, nil
	}
	return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
}

func newTestDispatcher() (*Dispatcher, *Registry, *recordingSender) {
	reg, _, sender := newTestRegistry()
	repo := &staticQuestionRepo{sets: map[string]domain.QuestionSet{
		"general": {ID: "general", Questions: sampleQuestions()},
	}}
	return NewDispatcher(reg, repo, "general", sender), reg, sender
}

func TestCreateRoomLoadsDefaultQuestionSet(t *testing.T) {
	d, reg, sender := newTestDispatcher()

	if err := d.CreateRoom(context.Background(), "host", "Helen", domain.DefaultGameOptions(), nil, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	ev, ok := sender.lastOf("host")
	if !ok || ev.Type != domain.EventRoomCreated {
		t.Fatalf("expected roomCreated, got %+v", ev)
	}
	info := ev.Payload.(domain.RoomInfo)
	if info.HostID != "host" || len(info.Players) != 1 {
		t.Fatalf("unexpected room info %+v", info)
	}
	room, ok := reg.Get(info.RoomCode)
	if !ok {
		t.Fatalf("room must be registered under its code")
	}
	if len(room.Players()) != 1 || room.Players()[0].Nickname != "Helen" {
		t.Fatalf("host must be the first roster entry")
	}
}

func TestCreateRoomWithUnknownSetReportsError(t *testing.T) {
	d, reg, sender := newTestDispatcher()

	if err := d.CreateRoom(context.Background(), "host", "Helen", domain.DefaultGameOptions(), nil, "missing"); err == nil {
		t.Fatalf("expected error for unknown question set")
	}
	if reg.Len() != 0 {
		t.Fatalf("no room must be created")
	}
	if ev, _ := sender.lastOf("host"); ev.Type != domain.EventError {
		t.Fatalf("expected error notice, got %+v", ev)
	}
}

func TestJoinUnknownCodeYieldsExplicitError(t *testing.T) {
	d, reg, sender := newTestDispatcher()

	d.JoinRoom("g1", "000000", "Alice")

	ev, ok := sender.lastOf("g1")
	if !ok || ev.Type != domain.EventJoinError {
		t.Fatalf("expected joinError, got %+v", ev)
	}
	if reg.Len() != 0 {
		t.Fatalf("join against unknown code must mutate nothing")
	}
}

func TestJoinAfterStartYieldsExplicitError(t *testing.T) {
	d, _, sender := newTestDispatcher()
	d.CreateRoom(context.Background(), "host", "Helen", domain.DefaultGameOptions(), nil, "")
	code := sender.createdRoomCode(t)

	d.StartGame("host", code)
	d.JoinRoom("late", code, "Zoe")

	if ev, _ := sender.lastOf("late"); ev.Type != domain.EventJoinError {
		t.Fatalf("expected joinError after start, got %+v", ev)
	}
}

func TestNonHostCommandsAreSilentlyDropped(t *testing.T) {
	d, reg, sender := newTestDispatcher()
	d.CreateRoom(context.Background(), "host", "Helen", domain.DefaultGameOptions(), nil, "")
	code := sender.createdRoomCode(t)
	d.JoinRoom("g1", code, "Alice")

	d.StartGame("g1", code)

	room, _ := reg.Get(code)
	if room.State() != domain.StateLobby {
		t.Fatalf("guest start must be dropped, state %s", room.State())
	}
	// No rejection is sent for dropped commands.
	if ev, _ := sender.lastOf("g1"); ev.Type != domain.EventJoinSuccess {
		t.Fatalf("unexpected event after dropped command: %+v", ev)
	}
}

func TestHostDisconnectDestroysRoom(t *testing.T) {
	d, reg, sender := newTestDispatcher()
	d.CreateRoom(context.Background(), "host", "Helen", domain.DefaultGameOptions(), nil, "")
	code := sender.createdRoomCode(t)
	d.JoinRoom("g1", code, "Alice")

	d.Disconnect("host")

	if _, ok := reg.Get(code); ok {
		t.Fatalf("host departure must destroy the room")
	}
	if ev, _ := sender.lastOf("g1"); ev.Type != domain.EventError {
		t.Fatalf("expected termination notice, got %+v", ev)
	}

	// Subsequent commands behave as "room not found".
	d.JoinRoom("g2", code, "Bob")
	if ev, _ := sender.lastOf("g2"); ev.Type != domain.EventJoinError {
		t.Fatalf("expected joinError against destroyed room, got %+v", ev)
	}
}

func TestGuestDisconnectShrinksRoster(t *testing.T) {
	d, reg, sender := newTestDispatcher()
	d.CreateRoom(context.Background(), "host", "Helen", domain.DefaultGameOptions(), nil, "")
	code := sender.createdRoomCode(t)
	d.JoinRoom("g1", code, "Alice")
	d.JoinRoom("g2", code, "Bob")

	d.Disconnect("g1")

	room, ok := reg.Get(code)
	if !ok {
		t.Fatalf("room must survive a guest departure")
	}
	if len(room.Players()) != 2 {
		t.Fatalf("expected host and one guest, got %d", len(room.Players()))
	}
}

// createdRoomCode pulls the room code out of the host's latest roomCreated
// event.
func (s *recordingSender) createdRoomCode(t *testing.T) string {
	t.Helper()
	for _, ev := range s.eventsOf("host") {
		if ev.Type == domain.EventRoomCreated {
			return ev.Payload.(domain.RoomInfo).RoomCode
		}
	}
	t.Fatalf("no roomCreated event recorded for host")
	return ""
}
