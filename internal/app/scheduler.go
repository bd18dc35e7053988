package app

import "time"

// CancelFunc aborts a scheduled task. Calling it after the task has fired
// is a no-op; tasks tolerate racy cancellation by re-checking room state.
type CancelFunc func()

// Scheduler issues cancellable delayed transition tasks on behalf of rooms.
// Tests substitute a manual implementation to drive phase timeouts
// deterministically.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) CancelFunc
}

// TimerScheduler runs tasks on real timers.
type TimerScheduler struct{}

func NewTimerScheduler() TimerScheduler {
	return TimerScheduler{}
}

func (TimerScheduler) Schedule(delay time.Duration, fn func()) CancelFunc {
	timer := time.AfterFunc(delay, fn)
	return func() { timer.Stop() }
}
