package app

import (
	"context"
	"log"

	"trivia-session-service/internal/domain"
)

// QuestionRepository loads question-set content (from cache/backing store).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// Dispatcher validates inbound client commands and routes them to the right
// room. Validation failures are silent no-ops except join rejections, which
// go back to the caller. The process never aborts on a malformed or
// mistimed command.
type Dispatcher struct {
	rooms      *Registry
	questions  QuestionRepository
	defaultSet string
	sender     Sender
}

func NewDispatcher(rooms *Registry, questions QuestionRepository, defaultSet string, sender Sender) *Dispatcher {
	return &Dispatcher{rooms: rooms, questions: questions, defaultSet: defaultSet, sender: sender}
}

// CreateRoom builds a new room for the caller. Questions may come inline
// with the command; otherwise they are loaded from the named question set
// (or the configured default).
func (d *Dispatcher) CreateRoom(ctx context.Context, connID, nickname string, opts domain.GameOptions, questions []domain.Question, setID string) error {
	if len(questions) == 0 {
		if setID == "" {
			setID = d.defaultSet
		}
		set, err := d.questions.GetQuestionSet(ctx, setID)
		if err != nil {
			log.Printf("create room: load question set %q: %v", setID, err)
			d.sender.Send(connID, domain.Event{Type: domain.EventError, Payload: domain.ErrorPayload{
				Message: "question set not available",
			}})
			return err
		}
		questions = set.Questions
	}

	room := d.rooms.Create(connID, nickname, opts, questions)
	log.Printf("[%s] room created by %s", room.Code(), nickname)
	d.sender.Send(connID, domain.Event{Type: domain.EventRoomCreated, Payload: domain.RoomInfo{
		RoomCode: room.Code(),
		Players:  room.Players(),
		HostID:   room.HostID(),
	}})
	return nil
}

// JoinRoom adds the caller to a lobby. Unlike other failures, join
// rejections are reported back explicitly.
func (d *Dispatcher) JoinRoom(connID, code, nickname string) {
	room, ok := d.rooms.Get(code)
	if !ok {
		log.Printf("[%s] join rejected: %v", code, domain.ErrRoomNotFound)
		d.sender.Send(connID, domain.Event{Type: domain.EventJoinError, Payload: domain.ErrorPayload{
			Message: "Invalid room code.",
		}})
		return
	}
	if _, err := room.Join(connID, nickname); err != nil {
		d.sender.Send(connID, domain.Event{Type: domain.EventJoinError, Payload: domain.ErrorPayload{
			Message: "This game has already started. It is not possible to join.",
		}})
		return
	}
	d.sender.Send(connID, domain.Event{Type: domain.EventJoinSuccess, Payload: domain.RoomInfo{
		RoomCode: code,
		Players:  room.Players(),
		HostID:   room.HostID(),
	}})
}

// StartGame begins the first round. Host-only; dropped otherwise.
func (d *Dispatcher) StartGame(connID, code string) {
	room, ok := d.rooms.Get(code)
	if !ok {
		return
	}
	if err := room.Start(connID); err != nil {
		log.Printf("[%s] start dropped: %v", code, err)
	}
}

// NextQuestion advances past the results screen. Host-only.
func (d *Dispatcher) NextQuestion(connID, code string) {
	room, ok := d.rooms.Get(code)
	if !ok {
		return
	}
	if err := room.NextQuestion(connID); err != nil {
		log.Printf("[%s] next question dropped: %v", code, err)
	}
}

// SkipWait forces the results transition during the answering phase.
func (d *Dispatcher) SkipWait(connID, code string) {
	room, ok := d.rooms.Get(code)
	if !ok {
		return
	}
	if err := room.SkipWait(connID); err != nil {
		log.Printf("[%s] skip dropped: %v", code, err)
	}
}

// KickPlayer removes a guest at the host's request.
func (d *Dispatcher) KickPlayer(connID, code, targetID string) {
	room, ok := d.rooms.Get(code)
	if !ok {
		return
	}
	if err := room.Kick(connID, targetID); err != nil {
		log.Printf("[%s] kick dropped: %v", code, err)
	}
}

// SubmitAnswer records a guest's answer; duplicates and out-of-phase
// submissions are dropped, the first submission stands.
func (d *Dispatcher) SubmitAnswer(connID, code string, answerIndex int) {
	room, ok := d.rooms.Get(code)
	if !ok {
		return
	}
	if err := room.SubmitAnswer(connID, answerIndex); err != nil {
		log.Printf("[%s] answer dropped: %v", code, err)
	}
}

// Disconnect handles the transport's connection-closed signal. A host
// departure destroys the room; a guest departure just shrinks the roster.
func (d *Dispatcher) Disconnect(connID string) {
	room, ok := d.rooms.RoomOf(connID)
	if !ok {
		return
	}
	if room.HostID() == connID {
		room.CloseByHost()
		d.rooms.Destroy(room.Code())
		return
	}
	room.RemovePlayer(connID)
}
