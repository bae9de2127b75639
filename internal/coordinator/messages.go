package coordinator

import (
	"github.com/DoyleJ11/draftboard/internal/conn"
	"github.com/DoyleJ11/draftboard/internal/draftapi"
	"github.com/DoyleJ11/draftboard/internal/engine"
	"github.com/DoyleJ11/draftboard/internal/roster"
	"github.com/DoyleJ11/draftboard/internal/state"
	"github.com/DoyleJ11/draftboard/internal/types"
)

type Msg interface{ isCoordinatorMsg() }

// Intent asks for a draft or remove transaction.
type Intent struct {
	Intent engine.Intent
	Reply  chan error
}

type Select struct {
	PlayerID int
	Reply    chan error
}

type DragStart struct {
	PlayerID int
	Reply    chan error
}

// Drop finishes the current drag. ToAvailable drops on the pool; otherwise TeamID is the target.
type Drop struct {
	TeamID      int
	ToAvailable bool
	Reply       chan error
}

// SetView changes any of the search, filter and sort inputs. Nil fields are left alone.
type SetView struct {
	Query    *string
	Position *string
	SortKey  *string
	Reply    chan int
}

type OpenTeam struct {
	TeamID int
	Reply  chan error
}

type UpdatePosition struct {
	PlayerID int
	TeamID   int
	Position string
	Reply    chan error
}

type Seed struct {
	Available []types.Player
	Teams     []roster.TeamSeed
	Reply     chan struct{}
}

type Watch struct {
	ClientID string
	Outbox   chan Board
}

type Unwatch struct{ ClientID string }

type GetBoard struct {
	Reply chan Board
}

type Shutdown struct{}

// Internal messages posted by the socket, timers and background calls.

type serverEvent struct {
	Event   string
	Payload []byte
}

type connectionChanged struct{ State conn.State }

type timeout struct{ Generation int }

type httpSettled struct {
	Generation int
	Resp       draftapi.DraftResponse
	Err        error
}

type run struct{ f func() }

func (Intent) isCoordinatorMsg()         {}
func (Select) isCoordinatorMsg()         {}
func (DragStart) isCoordinatorMsg()      {}
func (Drop) isCoordinatorMsg()           {}
func (SetView) isCoordinatorMsg()        {}
func (OpenTeam) isCoordinatorMsg()       {}
func (UpdatePosition) isCoordinatorMsg() {}
func (Seed) isCoordinatorMsg()           {}
func (Watch) isCoordinatorMsg()          {}
func (Unwatch) isCoordinatorMsg()        {}
func (GetBoard) isCoordinatorMsg()       {}
func (Shutdown) isCoordinatorMsg()       {}

func (serverEvent) isCoordinatorMsg()       {}
func (connectionChanged) isCoordinatorMsg() {}
func (timeout) isCoordinatorMsg()           {}
func (httpSettled) isCoordinatorMsg()       {}
func (run) isCoordinatorMsg()               {}

// Board is a copy of everything the board shows, safe to hand to other goroutines.
type Board struct {
	Version    int                 `json:"version"`
	League     string              `json:"league"`
	Connection conn.State          `json:"connection"`
	Phase      engine.Phase        `json:"phase"`
	Pending    *engine.Transaction `json:"pending,omitempty"`
	Selected   int                 `json:"selected,omitempty"`
	Dragging   int                 `json:"dragging,omitempty"`
	ActiveTeam int                 `json:"active_team,omitempty"`
	View       state.ViewState     `json:"view"`
	Roster     roster.Board        `json:"roster"`
}
