package ui

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Toaster surfaces one transient notice per call.
type Toaster interface {
	Toast(message string, severity Severity)
	// Notice is an informational toast that dismisses itself after ttl.
	Notice(message string, ttl time.Duration)
}

type Loader interface {
	ShowLoading()
	HideLoading()
}

type Modal interface {
	Show(id string, data any)
	Hide(id string)
}

// Toast is one surfaced notice, as kept by LogSink for inspection.
type Toast struct {
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	At       time.Time `json:"at"`
	Expires  time.Time `json:"expires,omitempty"`
}

// LogSink is the headless stand-in for the page's toast, loading and modal widgets.
// It logs every call and keeps the most recent toasts.
type LogSink struct {
	logger *zap.Logger
	keep   int

	mu      sync.Mutex
	toasts  []Toast
	loading bool
	open    map[string]any
}

func NewLogSink(logger *zap.Logger, keep int) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keep <= 0 {
		keep = 20
	}
	return &LogSink{logger: logger.Named("ui"), keep: keep, open: make(map[string]any)}
}

func (s *LogSink) Toast(message string, severity Severity) {
	s.push(Toast{Message: message, Severity: severity, At: time.Now()})
	switch severity {
	case SeverityError:
		s.logger.Error(message, zap.String("toast", string(severity)))
	case SeverityWarning:
		s.logger.Warn(message, zap.String("toast", string(severity)))
	default:
		s.logger.Info(message, zap.String("toast", string(severity)))
	}
}

func (s *LogSink) Notice(message string, ttl time.Duration) {
	now := time.Now()
	s.push(Toast{Message: message, Severity: SeverityInfo, At: now, Expires: now.Add(ttl)})
	s.logger.Info(message, zap.String("toast", "notice"), zap.Duration("ttl", ttl))
}

func (s *LogSink) push(t Toast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, t)
	if len(s.toasts) > s.keep {
		s.toasts = s.toasts[len(s.toasts)-s.keep:]
	}
}

// Toasts returns the kept toasts, dropping notices whose ttl has passed.
func (s *LogSink) Toasts() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	out := make([]Toast, 0, len(s.toasts))
	for _, t := range s.toasts {
		if !t.Expires.IsZero() && now.After(t.Expires) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *LogSink) ShowLoading() {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.logger.Debug("loading shown")
}

func (s *LogSink) HideLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.logger.Debug("loading hidden")
}

func (s *LogSink) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *LogSink) Show(id string, data any) {
	s.mu.Lock()
	s.open[id] = data
	s.mu.Unlock()
	s.logger.Info("modal shown", zap.String("modal", id), zap.Any("data", data))
}

func (s *LogSink) Hide(id string) {
	s.mu.Lock()
	delete(s.open, id)
	s.mu.Unlock()
	s.logger.Debug("modal hidden", zap.String("modal", id))
}

// Open returns the data of a shown modal.
func (s *LogSink) Open(id string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.open[id]
	return d, ok
}
