package hub

import (
	"context"

	"github.com/DoyleJ11/draftboard/internal/conn"
)

// HubMsg is anything the hub loop accepts.
type HubMsg interface{ isHubMsg() }

// EnsureManager returns the Manager for Options.URL, creating it on first use.
type EnsureManager struct {
	Options conn.Options // only used if creation happens
	Reply   chan *conn.Manager
}

type GetManager struct {
	URL   string
	Reply chan *conn.Manager
}

type RemoveManager struct {
	URL string
}

type ShutdownHub struct{}

type listManagers struct {
	Reply chan int
}

func (EnsureManager) isHubMsg() {}
func (GetManager) isHubMsg()    {}
func (RemoveManager) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}
func (listManagers) isHubMsg()  {}

// Hub keeps one connection Manager per endpoint so widgets that are wired
// independently still share a single realtime channel.
type Hub struct {
	inbox    chan HubMsg
	managers map[string]*conn.Manager
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewHub(parent context.Context) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		managers: make(map[string]*conn.Manager),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed after the hub has shut down and closed its managers.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Ensure is the blocking form of EnsureManager.
func (h *Hub) Ensure(opts conn.Options) *conn.Manager {
	reply := make(chan *conn.Manager, 1)
	select {
	case h.inbox <- EnsureManager{Options: opts, Reply: reply}:
	case <-h.ctx.Done():
		return nil
	}
	select {
	case m := <-reply:
		return m
	case <-h.ctx.Done():
		return nil
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureManager:
				if mgr := h.managers[msg.Options.URL]; mgr != nil {
					msg.Reply <- mgr
					break
				}
				mgr := conn.NewManager(msg.Options)
				h.managers[msg.Options.URL] = mgr
				msg.Reply <- mgr

			case GetManager:
				msg.Reply <- h.managers[msg.URL] // May be nil

			case RemoveManager:
				if mgr := h.managers[msg.URL]; mgr != nil {
					mgr.Close()
					delete(h.managers, msg.URL)
				}

			case listManagers:
				msg.Reply <- len(h.managers)

			case ShutdownHub:
				h.shutdown()
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for url, mgr := range h.managers {
		mgr.Close()
		delete(h.managers, url)
	}
}
