package app

import (
	"math"
	"time"

	"trivia-session-service/internal/domain"
)

// Scoring constants. The answer window used for speed scoring spans both
// the prepare and answering phases.
const (
	MaxPoints   = 1000
	StreakBonus = 20

	DefaultPrepareSeconds = 5
	DefaultAnswerSeconds  = 30
)

// applyRoundScore settles one player's round when results are shown. It
// mutates the player's counters and score and returns the points awarded
// plus whether the answer was correct. A nil record means no submission.
func applyRoundScore(p *domain.Player, rec *domain.AnswerRecord, q domain.Question, start time.Time, window time.Duration, scoreType domain.ScoreType) (int, bool) {
	if rec == nil || rec.AnswerIndex != q.CorrectAnswerIndex {
		p.WrongAnswers++
		p.Streak = 0
		return 0, false
	}

	p.CorrectAnswers++

	base := MaxPoints
	if scoreType == domain.ScoreSpeed {
		base = speedPoints(rec.SubmissionTime.Sub(start), window)
	}

	p.Streak++
	if p.Streak > p.BestStreak {
		p.BestStreak = p.Streak
	}
	points := base + (p.Streak-1)*StreakBonus
	p.Score += points
	return points, true
}

// speedPoints scales MaxPoints by the share of the answer window left when
// the submission arrived, clamped at zero for late answers.
func speedPoints(elapsed, window time.Duration) int {
	ratio := 1 - elapsed.Seconds()/window.Seconds()
	if ratio < 0 {
		ratio = 0
	}
	return int(math.Round(MaxPoints * ratio))
}
