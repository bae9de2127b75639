package testutil

import (
	"sync"
	"time"
)

// ManualScheduler runs scheduled callbacks only when a test advances its clock.
// Callbacks run on the goroutine calling Advance.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []task
}

type task struct {
	at  time.Duration
	seq int
	f   func()
}

func NewManualScheduler() *ManualScheduler { return &ManualScheduler{} }

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.tasks = append(s.tasks, task{at: s.now + d, seq: s.seq, f: f})
}

// Advance moves the clock forward by d, running every task that comes due in time order.
// Tasks scheduled by a running task are honored if they fall inside the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		idx := -1
		for i, t := range s.tasks {
			if t.at > target {
				continue
			}
			if idx < 0 || t.at < s.tasks[idx].at || (t.at == s.tasks[idx].at && t.seq < s.tasks[idx].seq) {
				idx = i
			}
		}
		if idx < 0 {
			s.now = target
			s.mu.Unlock()
			return
		}
		next := s.tasks[idx]
		s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
		s.now = next.at
		s.mu.Unlock()

		next.f()
	}
}

// Pending is the number of tasks not yet run.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
