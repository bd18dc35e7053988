package domain

// Event is the outbound message envelope. Payload shape depends on Type;
// gameStateUpdate payloads are additionally tagged by their gameState field.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Outbound event types.
const (
	EventRoomCreated     = "roomCreated"
	EventJoinSuccess     = "joinSuccess"
	EventJoinError       = "joinError"
	EventUpdatePlayers   = "updatePlayerList"
	EventKicked          = "kicked"
	EventGameStateUpdate = "gameStateUpdate"
	EventError           = "error"
	EventAuthSuccess     = "auth:success"
	EventChatHistory     = "chat:history"
	EventNewMessage      = "server:newMessage"
)

// RoomInfo confirms room creation or a successful join.
type RoomInfo struct {
	RoomCode string   `json:"roomCode"`
	Players  []Player `json:"players"`
	HostID   string   `json:"hostId"`
}

// ErrorPayload carries a human-readable failure message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// QuestionPreview is the showingQuestion variant of gameStateUpdate: the
// question text without options, shown during the prepare countdown.
type QuestionPreview struct {
	GameState      GameState `json:"gameState"`
	QuestionText   string    `json:"questionText"`
	QuestionIndex  int       `json:"questionIndex"`
	TotalQuestions int       `json:"totalQuestions"`
	Timer          int       `json:"timer"`
}

// QuestionOpen is the acceptingAnswers variant: the full question with
// options and the live submission counters.
type QuestionOpen struct {
	GameState      GameState `json:"gameState"`
	QuestionText   string    `json:"questionText"`
	Options        []string  `json:"options"`
	QuestionIndex  int       `json:"questionIndex"`
	TotalQuestions int       `json:"totalQuestions"`
	Timer          int       `json:"timer"`
	AnsweredCount  int       `json:"answeredCount"`
	TotalPlayers   int       `json:"totalPlayers"`
}

// RoundSummary aggregates the round outcome shared by every recipient.
type RoundSummary struct {
	CorrectAnswerIndex int `json:"correctAnswerIndex"`
	CorrectCount       int `json:"correctCount"`
	IncorrectCount     int `json:"incorrectCount"`
}

// RoundResults is the showingResults variant. PlayerResult is set per
// recipient ("correct"/"incorrect") and omitted for the host.
type RoundResults struct {
	GameState    GameState      `json:"gameState"`
	Results      RoundSummary   `json:"results"`
	Options      []string       `json:"options"`
	Ranking      []RankingEntry `json:"ranking"`
	PlayerResult string         `json:"playerResult,omitempty"`
	Explanation  string         `json:"explanation,omitempty"`
}

// GameOver is the endGame variant: the final host-excluded ranking and the
// question set that was played.
type GameOver struct {
	GameState    GameState  `json:"gameState"`
	FinalRanking []Player   `json:"finalRanking"`
	Questions    []Question `json:"questions"`
}
