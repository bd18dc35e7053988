package app

import (
	"sync"
	"time"

	"trivia-session-service/internal/domain"
)

// recordingSender captures every event per connection for assertions.
type recordingSender struct {
	mu     sync.Mutex
	events map[string][]domain.Event
}

func newRecordingSender() *recordingSender {
	return &recordingSender{events: make(map[string][]domain.Event)}
}

func (s *recordingSender) Send(connID string, ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[connID] = append(s.events[connID], ev)
}

func (s *recordingSender) eventsOf(connID string) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, len(s.events[connID]))
	copy(out, s.events[connID])
	return out
}

func (s *recordingSender) lastOf(connID string) (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	evs := s.events[connID]
	if len(evs) == 0 {
		return domain.Event{}, false
	}
	return evs[len(evs)-1], true
}

func (s *recordingSender) countType(connID, eventType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events[connID] {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

// manualScheduler records scheduled tasks so tests can fire phase timeouts
// deterministically, or replay a stale callback after cancellation.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	fn        func()
	cancelled bool
	fired     bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{}
}

func (m *manualScheduler) Schedule(_ time.Duration, fn func()) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	task := &manualTask{fn: fn}
	m.tasks = append(m.tasks, task)
	return func() {
		m.mu.Lock()
		task.cancelled = true
		m.mu.Unlock()
	}
}

// fire runs every pending (uncancelled, unfired) task.
func (m *manualScheduler) fire() {
	m.mu.Lock()
	var due []*manualTask
	for _, task := range m.tasks {
		if !task.cancelled && !task.fired {
			task.fired = true
			due = append(due, task)
		}
	}
	m.mu.Unlock()
	for _, task := range due {
		task.fn()
	}
}

// lastTask exposes the most recently armed task so tests can replay it as a
// stale callback.
func (m *manualScheduler) lastTask() *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return nil
	}
	return m.tasks[len(m.tasks)-1]
}

func (m *manualScheduler) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, task := range m.tasks {
		if !task.cancelled && !task.fired {
			n++
		}
	}
	return n
}

// fakeClock is a settable clock for deterministic submission timestamps.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Text:               "Which of these planets is known as the 'Red Planet'?",
			Options:            []string{"Venus", "Mars", "Jupiter", "Saturn"},
			CorrectAnswerIndex: 1,
			Explanation:        "Iron oxide gives Mars its color.",
		},
		{
			Text:               "What is the largest ocean on Earth?",
			Options:            []string{"Atlantic", "Indian", "Arctic", "Pacific"},
			CorrectAnswerIndex: 3,
		},
	}
}

type roomFixture struct {
	room   *Room
	sched  *manualScheduler
	sender *recordingSender
	clock  *fakeClock
}

func newRoomFixture(opts domain.GameOptions, questions []domain.Question) *roomFixture {
	sched := newManualScheduler()
	sender := newRecordingSender()
	clock := newFakeClock()
	room := newRoomWithClock("123456", "host", "Helen", opts, questions, sched, sender,
		DefaultPrepareSeconds*time.Second, DefaultAnswerSeconds*time.Second, clock.Now)
	return &roomFixture{room: room, sched: sched, sender: sender, clock: clock}
}

// startAnswering drives the room from the lobby into acceptingAnswers.
func (f *roomFixture) startAnswering() {
	if err := f.room.Start("host"); err != nil {
		panic(err)
	}
	f.sched.fire() // prepare timeout
}
