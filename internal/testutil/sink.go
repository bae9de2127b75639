package testutil

import (
	"sync"
	"time"

	"github.com/DoyleJ11/draftboard/internal/ui"
)

type Toast struct {
	Message  string
	Severity ui.Severity
	TTL      time.Duration
}

// Sink records toast, loading and modal calls.
type Sink struct {
	mu      sync.Mutex
	toasts  []Toast
	shows   int
	hides   int
	loading bool
	modals  map[string]any
}

func NewSink() *Sink { return &Sink{modals: make(map[string]any)} }

func (s *Sink) Toast(message string, severity ui.Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, Toast{Message: message, Severity: severity})
}

func (s *Sink) Notice(message string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, Toast{Message: message, Severity: ui.SeverityInfo, TTL: ttl})
}

func (s *Sink) ShowLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shows++
	s.loading = true
}

func (s *Sink) HideLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hides++
	s.loading = false
}

func (s *Sink) Show(id string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modals[id] = data
}

func (s *Sink) Hide(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.modals, id)
}

func (s *Sink) Toasts() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Toast(nil), s.toasts...)
}

// ToastsOf returns the toasts with the given severity.
func (s *Sink) ToastsOf(sev ui.Severity) []Toast {
	var out []Toast
	for _, t := range s.Toasts() {
		if t.Severity == sev {
			out = append(out, t)
		}
	}
	return out
}

func (s *Sink) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LoadingCalls returns how many times the indicator was shown and hidden.
func (s *Sink) LoadingCalls() (shows, hides int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shows, s.hides
}

func (s *Sink) Modal(id string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.modals[id]
	return d, ok
}
