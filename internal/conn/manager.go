package conn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/DoyleJ11/draftboard/internal/metrics"
	"github.com/DoyleJ11/draftboard/internal/types"
	"github.com/DoyleJ11/draftboard/internal/ws"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var ErrNotConnected = errors.New("not connected")
var ErrClosed = errors.New("connection manager closed")

// Handler receives the raw payload of one server event.
// Handlers run on the read goroutine and must not block.
type Handler func(payload []byte)

type Callbacks struct {
	OnConnectionChange func(State)
	OnError            func(error)
}

type Options struct {
	URL            string
	FallbackURL    string // defaults to URL
	League         string
	Header         http.Header
	ConnectTimeout time.Duration
	FallbackDelay  time.Duration

	Primary  ws.Dialer
	Fallback ws.Dialer
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Manager owns at most one realtime channel and walks the
// Primary -> Fallback -> Degraded cascade when it cannot keep one open.
type Manager struct {
	opts   Options
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	ch        ws.Channel
	running   bool
	closed    bool
	cancel    context.CancelFunc
	callbacks []Callbacks
	handlers  map[string][]Handler
	wg        sync.WaitGroup
}

func NewManager(opts Options) *Manager {
	if opts.FallbackURL == "" {
		opts.FallbackURL = opts.URL
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.FallbackDelay < 0 {
		opts.FallbackDelay = 0
	}
	if opts.Primary == nil {
		opts.Primary = ws.PrimaryDialer{Logger: opts.Logger}
	}
	if opts.Fallback == nil {
		opts.Fallback = ws.FallbackDialer{HandshakeTimeout: opts.ConnectTimeout, Logger: opts.Logger}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		opts:     opts,
		logger:   logger.Named("conn").With(zap.String("league", opts.League)),
		handlers: make(map[string][]Handler),
	}
}

// Connect registers cb and, the first time it is called, starts the cascade in the background.
// Later calls reuse the existing channel and only add their callbacks.
func (m *Manager) Connect(ctx context.Context, cb Callbacks) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.callbacks = append(m.callbacks, cb)
	if m.running {
		current := m.state
		m.mu.Unlock()
		if cb.OnConnectionChange != nil {
			cb.OnConnectionChange(current)
		}
		return nil
	}
	m.running = true
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.cascade(runCtx)
	}()
	return nil
}

// On registers a handler for a server event. Any number of handlers may share an event.
func (m *Manager) On(event string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], h)
}

func (m *Manager) Emit(event string, payload any) error {
	m.mu.Lock()
	ch := m.ch
	m.mu.Unlock()
	if ch == nil {
		return ErrNotConnected
	}
	frame, err := types.Encode(event, payload)
	if err != nil {
		return err
	}
	if err := ch.Send(frame); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}

func (m *Manager) IsConnected() bool { return m.State().Connected() }

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	ch := m.ch
	m.ch = nil
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
	m.wg.Wait()
	last := m.State()
	m.setState(State{Status: Disconnected, Transport: last.Transport, Mode: last.Mode})
}

// cascade tries the primary transport, then after FallbackDelay one fallback attempt.
// When both fail the manager is Degraded for good.
func (m *Manager) cascade(ctx context.Context) {
	attempt := 0
	op := func() error {
		attempt++
		if attempt == 1 {
			return m.open(ctx, ModePrimary)
		}
		return m.open(ctx, ModeFallback)
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(m.opts.FallbackDelay), 1), ctx)

	notify := func(err error, wait time.Duration) {
		m.logger.Warn("primary transport failed, falling back", zap.Error(err), zap.Duration("wait", wait))
		m.reportError(err)
		m.setState(State{Status: Disconnected, Transport: TransportPrimary, Mode: ModePrimary})
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, ErrClosed) {
			return
		}
		m.logger.Error("realtime unavailable, degrading to HTTP", zap.Error(err))
		m.reportError(err)
		m.degrade()
	}
}

func (m *Manager) open(ctx context.Context, mode Mode) error {
	dialer, url, tr := m.opts.Primary, m.opts.URL, TransportPrimary
	if mode == ModeFallback {
		dialer, url, tr = m.opts.Fallback, m.opts.FallbackURL, TransportFallback
	}
	m.setState(State{Status: Connecting, Transport: tr, Mode: mode})

	dctx, cancel := context.WithTimeout(ctx, m.opts.ConnectTimeout)
	defer cancel()
	ch, err := dialer.Dial(dctx, url, m.opts.Header, m.dispatch)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		ch.Close()
		return backoff.Permanent(ErrClosed)
	}
	m.ch = ch
	m.mu.Unlock()

	m.wg.Add(1)
	go m.watch(ctx, ch, mode)

	m.setState(State{Status: Connected, Transport: tr, Mode: mode})
	m.logger.Info("realtime channel open", zap.String("transport", tr.String()))

	if err := m.Emit(types.EventJoinDraftRoom, types.JoinRoom{LeagueName: m.opts.League}); err != nil {
		m.logger.Warn("join_draft_room failed", zap.Error(err))
	}
	return nil
}

// watch waits for ch to drop. A dropped primary re-enters the cascade; a dropped fallback degrades.
func (m *Manager) watch(ctx context.Context, ch ws.Channel, mode Mode) {
	defer m.wg.Done()
	<-ch.Done()

	m.mu.Lock()
	if m.ch != ch || m.closed {
		m.mu.Unlock()
		return
	}
	m.ch = nil
	m.mu.Unlock()

	if err := ch.Err(); err != nil {
		m.reportError(err)
	}
	if ctx.Err() != nil {
		return
	}
	if mode == ModePrimary {
		m.logger.Warn("primary channel dropped, reconnecting")
		m.cascade(ctx)
		return
	}
	m.logger.Warn("fallback channel dropped")
	m.degrade()
}

func (m *Manager) degrade() {
	m.setState(State{Status: Degraded, Transport: TransportFallback, Mode: ModeDegraded, Text: DegradedText})
}

func (m *Manager) dispatch(frame []byte) {
	event, payload := types.Peek(frame)
	if event == "" {
		m.logger.Debug("frame without event", zap.ByteString("frame", frame))
		return
	}
	m.opts.Metrics.ServerEvent(event)
	if event == types.EventJoinedRoom {
		m.logger.Info("joined room", zap.String("room", string(payload)))
	}

	m.mu.Lock()
	hs := append([]Handler(nil), m.handlers[event]...)
	m.mu.Unlock()
	for _, h := range hs {
		h(payload)
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	cbs := append([]Callbacks(nil), m.callbacks...)
	m.mu.Unlock()

	m.opts.Metrics.ConnectionStatus(s.Status.String(), s.Transport.String())
	for _, cb := range cbs {
		if cb.OnConnectionChange != nil {
			cb.OnConnectionChange(s)
		}
	}
}

func (m *Manager) reportError(err error) {
	m.mu.Lock()
	cbs := append([]Callbacks(nil), m.callbacks...)
	m.mu.Unlock()
	for _, cb := range cbs {
		if cb.OnError != nil {
			cb.OnError(err)
		}
	}
}
