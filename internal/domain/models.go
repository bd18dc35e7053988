package domain

import "time"

// GameState is the room's position in its fixed phase sequence.
type GameState string

const (
	StateLobby            GameState = "lobby"
	StateShowingQuestion  GameState = "showingQuestion"
	StateAcceptingAnswers GameState = "acceptingAnswers"
	StateShowingResults   GameState = "showingResults"
	StateEndGame          GameState = "endGame"
)

// ScoreType selects how round points are computed.
type ScoreType string

const (
	// ScoreSpeed scales points by how fast the answer arrived.
	ScoreSpeed ScoreType = "speed"
	// ScoreFixed awards full points for any correct answer.
	ScoreFixed ScoreType = "fixed"
)

// GameOptions are fixed at room creation.
type GameOptions struct {
	ScoreType       ScoreType `json:"scoreType"`
	ShowRanking     bool      `json:"showRanking"`
	ShowExplanation bool      `json:"showExplanation"`
}

// DefaultGameOptions returns the documented defaults: speed scoring,
// rankings shown, explanations hidden.
func DefaultGameOptions() GameOptions {
	return GameOptions{ScoreType: ScoreSpeed, ShowRanking: true, ShowExplanation: false}
}

// ResolveGameOptions applies the documented defaults to a raw client
// payload. Nil pointers mean the field was omitted. The original clients
// sent "correct" for fixed scoring; both spellings are accepted.
func ResolveGameOptions(scoreType string, showRanking, showExplanation *bool) GameOptions {
	opts := DefaultGameOptions()
	switch scoreType {
	case string(ScoreFixed), "correct":
		opts.ScoreType = ScoreFixed
	}
	if showRanking != nil {
		opts.ShowRanking = *showRanking
	}
	if showExplanation != nil {
		opts.ShowExplanation = *showExplanation
	}
	return opts
}

// Player is one connection participating in a room. The host is stored as a
// player too but is excluded from scoring and ranking.
type Player struct {
	ID             string `json:"id"`
	Nickname       string `json:"nickname"`
	Score          int    `json:"score"`
	Streak         int    `json:"streak"`
	BestStreak     int    `json:"bestStreak"`
	CorrectAnswers int    `json:"correctAnswers"`
	WrongAnswers   int    `json:"wrongAnswers"`
}

// Question is one multiple-choice question. Explanation is optional
// metadata shown with results when the room opts in.
type Question struct {
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation,omitempty"`
}

// QuestionSet is a named, ordered collection of questions.
type QuestionSet struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// AnswerRecord is one player's submission for the current round.
type AnswerRecord struct {
	AnswerIndex    int       `json:"answerIndex"`
	SubmissionTime time.Time `json:"submissionTime"`
}

// RankingEntry is one row of the per-round ranking broadcast.
type RankingEntry struct {
	ID              string `json:"id"`
	Nickname        string `json:"nickname"`
	PointsThisRound int    `json:"pointsThisRound"`
	TotalScore      int    `json:"totalScore"`
	Streak          int    `json:"streak"`
	BestStreak      int    `json:"bestStreak"`
	CorrectAnswers  int    `json:"correctAnswers"`
	WrongAnswers    int    `json:"wrongAnswers"`
}

// Identity is the opaque result of external token verification.
type Identity struct {
	UserID   string `json:"uid"`
	Nickname string `json:"nickname"`
}

// ChatMessage is one persisted topic-chat message.
type ChatMessage struct {
	SenderID       string    `json:"senderId"`
	SenderNickname string    `json:"senderNickname"`
	Message        string    `json:"message"`
	Topic          string    `json:"topic"`
	Timestamp      time.Time `json:"timestamp"`
}
