package domain

import "errors"

var (
	// ErrRoomNotFound is returned when no live room holds the given code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNotHost is returned when a guest issues a host-only command.
	ErrNotHost = errors.New("caller is not the room host")
	// ErrWrongPhase is returned when a command arrives outside the phase it is valid in.
	ErrWrongPhase = errors.New("command not valid in current game state")
	// ErrGameStarted rejects joins once the room has left the lobby.
	ErrGameStarted = errors.New("game already started")
	// ErrAlreadyAnswered is returned on a second submission in the same round.
	ErrAlreadyAnswered = errors.New("answer already submitted this round")
	// ErrNotInRoom is returned when the caller is not a member of the room.
	ErrNotInRoom = errors.New("player not in room")
	// ErrQuestionSetNotFound indicates the question content could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrInvalidToken is returned when identity verification rejects a token.
	ErrInvalidToken = errors.New("invalid auth token")
)
