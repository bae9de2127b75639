package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/DoyleJ11/draftboard/internal/conn"
)

type Emission struct {
	Event   string
	Payload []byte
}

// Realtime is an in-memory stand-in for the connection manager.
type Realtime struct {
	mu        sync.Mutex
	state     conn.State
	handlers  map[string][]conn.Handler
	callbacks []conn.Callbacks
	emits     []Emission
	emitErr   error
}

// NewRealtime starts out connected over the primary transport.
func NewRealtime() *Realtime {
	return &Realtime{
		state:    conn.State{Status: conn.Connected, Transport: conn.TransportPrimary, Mode: conn.ModePrimary},
		handlers: make(map[string][]conn.Handler),
	}
}

func (r *Realtime) Connect(ctx context.Context, cb conn.Callbacks) error {
	r.mu.Lock()
	r.callbacks = append(r.callbacks, cb)
	s := r.state
	r.mu.Unlock()
	if cb.OnConnectionChange != nil {
		cb.OnConnectionChange(s)
	}
	return nil
}

func (r *Realtime) On(event string, h conn.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[event] = append(r.handlers[event], h)
}

func (r *Realtime) Emit(event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.Connected() {
		return conn.ErrNotConnected
	}
	if r.emitErr != nil {
		return r.emitErr
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	r.emits = append(r.emits, Emission{Event: event, Payload: raw})
	return nil
}

func (r *Realtime) IsConnected() bool { return r.State().Connected() }

func (r *Realtime) State() conn.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetState changes the connection state and notifies every registered callback.
func (r *Realtime) SetState(s conn.State) {
	r.mu.Lock()
	r.state = s
	cbs := append([]conn.Callbacks(nil), r.callbacks...)
	r.mu.Unlock()
	for _, cb := range cbs {
		if cb.OnConnectionChange != nil {
			cb.OnConnectionChange(s)
		}
	}
}

// FailEmits makes every later Emit return err.
func (r *Realtime) FailEmits(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitErr = err
}

// Deliver plays a server event through the registered handlers.
func (r *Realtime) Deliver(event string, payload any) {
	var raw []byte
	switch p := payload.(type) {
	case []byte:
		raw = p
	case string:
		raw = []byte(p)
	default:
		raw, _ = json.Marshal(p)
	}
	r.mu.Lock()
	hs := append([]conn.Handler(nil), r.handlers[event]...)
	r.mu.Unlock()
	for _, h := range hs {
		h(raw)
	}
}

func (r *Realtime) Emits() []Emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Emission(nil), r.emits...)
}

func (r *Realtime) EmitsOf(event string) []Emission {
	var out []Emission
	for _, e := range r.Emits() {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
