package app

import (
	"log"
	"sort"
	"sync"
	"time"

	"trivia-session-service/internal/domain"
)

// Sender delivers an outbound event to a single connection. Implementations
// must not block; the transport buffers per connection.
type Sender interface {
	Send(connID string, event domain.Event)
}

// Room is one live game session. All mutation happens under mu, which
// serializes client commands and timer callbacks the way the original
// single event loop did. At most one transition timer is pending at a time;
// arming a new one always cancels the previous one first.
type Room struct {
	code   string
	hostID string

	prepare time.Duration
	answer  time.Duration

	sched  Scheduler
	sender Sender
	now    func() time.Time

	mu            sync.Mutex
	state         domain.GameState
	players       []*domain.Player
	questions     []domain.Question
	current       int
	answers       map[string]domain.AnswerRecord
	questionStart time.Time
	opts          domain.GameOptions
	cancelTimer   CancelFunc
}

func newRoom(code, hostID, hostNickname string, opts domain.GameOptions, questions []domain.Question, sched Scheduler, sender Sender, prepare, answer time.Duration) *Room {
	return newRoomWithClock(code, hostID, hostNickname, opts, questions, sched, sender, prepare, answer, time.Now)
}

// newRoomWithClock allows deterministic timestamps in tests.
func newRoomWithClock(code, hostID, hostNickname string, opts domain.GameOptions, questions []domain.Question, sched Scheduler, sender Sender, prepare, answer time.Duration, now func() time.Time) *Room {
	return &Room{
		code:      code,
		hostID:    hostID,
		prepare:   prepare,
		answer:    answer,
		sched:     sched,
		sender:    sender,
		now:       now,
		state:     domain.StateLobby,
		players:   []*domain.Player{{ID: hostID, Nickname: hostNickname}},
		questions: questions,
		current:   -1,
		answers:   make(map[string]domain.AnswerRecord),
		opts:      opts,
	}
}

func (r *Room) Code() string   { return r.code }
func (r *Room) HostID() string { return r.hostID }

// State reports the current phase.
func (r *Room) State() domain.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// HasPlayer reports whether id is a member (host included).
func (r *Room) HasPlayer(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerLocked(id) != nil
}

// Players returns a snapshot of the roster in join order.
func (r *Room) Players() []domain.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rosterLocked()
}

// Join appends a guest to the lobby, tells everyone else, and returns the
// updated roster for the joiner's confirmation.
func (r *Room) Join(id, nickname string) ([]domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != domain.StateLobby {
		return nil, domain.ErrGameStarted
	}
	r.players = append(r.players, &domain.Player{ID: id, Nickname: nickname})
	roster := r.rosterLocked()
	r.broadcastExceptLocked(id, domain.Event{Type: domain.EventUpdatePlayers, Payload: roster})
	return roster, nil
}

// Start begins the game. Host-only, lobby-only.
func (r *Room) Start(callerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if callerID != r.hostID {
		return domain.ErrNotHost
	}
	if r.state != domain.StateLobby {
		return domain.ErrWrongPhase
	}
	log.Printf("[%s] host started the game", r.code)
	r.advanceLocked()
	return nil
}

// NextQuestion moves on from the results screen. Host-only.
func (r *Room) NextQuestion(callerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if callerID != r.hostID {
		return domain.ErrNotHost
	}
	if r.state != domain.StateShowingResults {
		return domain.ErrWrongPhase
	}
	r.advanceLocked()
	return nil
}

// advanceLocked steps to the next question, or ends the game once the
// question list is exhausted. currentQuestionIndex only ever moves forward.
func (r *Room) advanceLocked() {
	r.current++
	if r.current >= len(r.questions) {
		r.endGameLocked()
		return
	}

	r.cancelTimerLocked()
	r.state = domain.StateShowingQuestion
	r.answers = make(map[string]domain.AnswerRecord)
	q := r.questions[r.current]

	r.broadcastLocked(domain.Event{Type: domain.EventGameStateUpdate, Payload: domain.QuestionPreview{
		GameState:      domain.StateShowingQuestion,
		QuestionText:   q.Text,
		QuestionIndex:  r.current,
		TotalQuestions: len(r.questions),
		Timer:          int(r.prepare.Seconds()),
	}})
	log.Printf("[%s] showing question %d/%d", r.code, r.current+1, len(r.questions))

	r.cancelTimer = r.sched.Schedule(r.prepare, r.beginAnswering)
}

// beginAnswering is the prepare-timeout callback. It re-checks the phase:
// the room may have been advanced or closed since the timer was armed.
func (r *Room) beginAnswering() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != domain.StateShowingQuestion {
		return
	}
	r.cancelTimerLocked()
	r.state = domain.StateAcceptingAnswers
	r.questionStart = r.now()
	q := r.questions[r.current]

	r.broadcastLocked(domain.Event{Type: domain.EventGameStateUpdate, Payload: domain.QuestionOpen{
		GameState:      domain.StateAcceptingAnswers,
		QuestionText:   q.Text,
		Options:        q.Options,
		QuestionIndex:  r.current,
		TotalQuestions: len(r.questions),
		Timer:          int(r.answer.Seconds()),
		AnsweredCount:  0,
		TotalPlayers:   r.guestCountLocked(),
	}})
	log.Printf("[%s] accepting answers for %s", r.code, r.answer)

	r.cancelTimer = r.sched.Schedule(r.answer, r.answerTimeout)
}

// answerTimeout fires when the answering window elapses.
func (r *Room) answerTimeout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != domain.StateAcceptingAnswers {
		return
	}
	r.showResultsLocked()
}

// SubmitAnswer records a guest's single submission for the round. When the
// last guest answers, the results transition fires immediately; otherwise
// the host alone gets a progress update.
func (r *Room) SubmitAnswer(playerID string, answerIndex int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != domain.StateAcceptingAnswers {
		return domain.ErrWrongPhase
	}
	if playerID == r.hostID || r.playerLocked(playerID) == nil {
		return domain.ErrNotInRoom
	}
	if _, dup := r.answers[playerID]; dup {
		return domain.ErrAlreadyAnswered
	}

	r.answers[playerID] = domain.AnswerRecord{AnswerIndex: answerIndex, SubmissionTime: r.now()}

	guests := r.guestCountLocked()
	answered := len(r.answers)
	log.Printf("[%s] answer received, %d/%d", r.code, answered, guests)

	if answered >= guests {
		r.showResultsLocked()
		return nil
	}

	q := r.questions[r.current]
	remaining := r.answer - r.now().Sub(r.questionStart)
	if remaining < 0 {
		remaining = 0
	}
	r.sender.Send(r.hostID, domain.Event{Type: domain.EventGameStateUpdate, Payload: domain.QuestionOpen{
		GameState:      domain.StateAcceptingAnswers,
		QuestionText:   q.Text,
		Options:        q.Options,
		QuestionIndex:  r.current,
		TotalQuestions: len(r.questions),
		Timer:          int(remaining.Seconds()),
		AnsweredCount:  answered,
		TotalPlayers:   guests,
	}})
	return nil
}

// SkipWait lets the host cut the answering phase short.
func (r *Room) SkipWait(callerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if callerID != r.hostID {
		return domain.ErrNotHost
	}
	if r.state != domain.StateAcceptingAnswers {
		return domain.ErrWrongPhase
	}
	log.Printf("[%s] host skipped the wait", r.code)
	r.showResultsLocked()
	return nil
}

// showResultsLocked runs the scoring pass and broadcasts per-recipient
// results. Idempotent: a stale trigger after the transition already ran is
// a no-op, so full-submission, timer expiry, and host skip can race freely.
func (r *Room) showResultsLocked() {
	if r.state == domain.StateShowingResults {
		return
	}
	r.cancelTimerLocked()
	r.state = domain.StateShowingResults
	q := r.questions[r.current]
	window := r.prepare + r.answer

	ranking := make([]domain.RankingEntry, 0, len(r.players))
	correctCount, incorrectCount := 0, 0
	outcome := make(map[string]bool, len(r.players))

	for _, p := range r.players {
		if p.ID == r.hostID {
			continue
		}
		var rec *domain.AnswerRecord
		if a, ok := r.answers[p.ID]; ok {
			rec = &a
		}
		points, correct := applyRoundScore(p, rec, q, r.questionStart, window, r.opts.ScoreType)
		if correct {
			correctCount++
		} else {
			incorrectCount++
		}
		outcome[p.ID] = correct
		ranking = append(ranking, domain.RankingEntry{
			ID:              p.ID,
			Nickname:        p.Nickname,
			PointsThisRound: points,
			TotalScore:      p.Score,
			Streak:          p.Streak,
			BestStreak:      p.BestStreak,
			CorrectAnswers:  p.CorrectAnswers,
			WrongAnswers:    p.WrongAnswers,
		})
	}

	// Ties keep join order; the secondary order is not a contract.
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].TotalScore > ranking[j].TotalScore
	})
	if !r.opts.ShowRanking {
		ranking = []domain.RankingEntry{}
	}

	summary := domain.RoundSummary{
		CorrectAnswerIndex: q.CorrectAnswerIndex,
		CorrectCount:       correctCount,
		IncorrectCount:     incorrectCount,
	}
	explanation := ""
	if r.opts.ShowExplanation {
		explanation = q.Explanation
	}

	for _, p := range r.players {
		payload := domain.RoundResults{
			GameState:   domain.StateShowingResults,
			Results:     summary,
			Options:     q.Options,
			Ranking:     ranking,
			Explanation: explanation,
		}
		if p.ID != r.hostID {
			if outcome[p.ID] {
				payload.PlayerResult = "correct"
			} else {
				payload.PlayerResult = "incorrect"
			}
		}
		r.sender.Send(p.ID, domain.Event{Type: domain.EventGameStateUpdate, Payload: payload})
	}
	log.Printf("[%s] showing results: %d correct, %d incorrect", r.code, correctCount, incorrectCount)
}

// endGameLocked is terminal for gameplay; the room itself lives until the
// host leaves.
func (r *Room) endGameLocked() {
	r.cancelTimerLocked()
	r.state = domain.StateEndGame

	final := make([]domain.Player, 0, len(r.players))
	for _, p := range r.players {
		if p.ID != r.hostID {
			final = append(final, *p)
		}
	}
	sort.SliceStable(final, func(i, j int) bool {
		return final[i].Score > final[j].Score
	})

	r.broadcastLocked(domain.Event{Type: domain.EventGameStateUpdate, Payload: domain.GameOver{
		GameState:    domain.StateEndGame,
		FinalRanking: final,
		Questions:    r.questions,
	}})
	log.Printf("[%s] game over", r.code)
}

// Kick removes a guest at the host's request. The victim is notified
// individually; any answer they already submitted this round stays in the
// ledger.
func (r *Room) Kick(callerID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if callerID != r.hostID {
		return domain.ErrNotHost
	}
	if targetID == r.hostID {
		return domain.ErrNotInRoom
	}
	if !r.removePlayerLocked(targetID) {
		return domain.ErrNotInRoom
	}
	r.sender.Send(targetID, domain.Event{Type: domain.EventKicked, Payload: domain.ErrorPayload{
		Message: "You were removed from the room by the host.",
	}})
	r.broadcastLocked(domain.Event{Type: domain.EventUpdatePlayers, Payload: r.rosterLocked()})
	log.Printf("[%s] host kicked player %s", r.code, targetID)
	return nil
}

// RemovePlayer handles a guest disconnect: drop them from the roster and
// tell the remainder. Their answer record, if any, still counts this round.
func (r *Room) RemovePlayer(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.removePlayerLocked(id) {
		return
	}
	r.broadcastLocked(domain.Event{Type: domain.EventUpdatePlayers, Payload: r.rosterLocked()})
	log.Printf("[%s] player %s left", r.code, id)
}

// CloseByHost tears the room down when the host disconnects: cancel the
// pending timer and notify everyone. The registry entry is removed by the
// caller.
func (r *Room) CloseByHost() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelTimerLocked()
	r.broadcastLocked(domain.Event{Type: domain.EventError, Payload: domain.ErrorPayload{
		Message: "The host closed the room.",
	}})
	log.Printf("[%s] room closed by host", r.code)
}

func (r *Room) cancelTimerLocked() {
	if r.cancelTimer != nil {
		r.cancelTimer()
		r.cancelTimer = nil
	}
}

func (r *Room) playerLocked(id string) *domain.Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) removePlayerLocked(id string) bool {
	for i, p := range r.players {
		if p.ID == id {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) guestCountLocked() int {
	n := 0
	for _, p := range r.players {
		if p.ID != r.hostID {
			n++
		}
	}
	return n
}

func (r *Room) rosterLocked() []domain.Player {
	roster := make([]domain.Player, 0, len(r.players))
	for _, p := range r.players {
		roster = append(roster, *p)
	}
	return roster
}

func (r *Room) broadcastLocked(ev domain.Event) {
	for _, p := range r.players {
		r.sender.Send(p.ID, ev)
	}
}

func (r *Room) broadcastExceptLocked(exclude string, ev domain.Event) {
	for _, p := range r.players {
		if p.ID != exclude {
			r.sender.Send(p.ID, ev)
		}
	}
}
