package engine

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNoPlayerSelected = errors.New("no player selected")
var ErrNotConnected = errors.New("not connected to the draft server")
var ErrTransactionPending = errors.New("another transaction is pending")
var ErrNoMatchingTransaction = errors.New("no matching pending transaction")
var ErrNoPendingTransaction = errors.New("no pending transaction")
var ErrStaleTimeout = errors.New("timeout for a settled transaction")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Kind string

const (
	KindDraft  Kind = "draft"
	KindRemove Kind = "remove"
)

// Intent is what a click or a drop asks for. Draft and drag-drop share it.
type Intent struct {
	Kind       Kind   `json:"kind"`
	PlayerID   int    `json:"player_id"`
	PlayerName string `json:"player_name"`
	TeamID     int    `json:"team_id"`
	TeamName   string `json:"team_name"`
}

type Transaction struct {
	ID uuid.UUID `json:"id"`
	Intent
	IssuedAt   time.Time `json:"issued_at"`
	Generation int       `json:"generation"`
}

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePending Phase = "pending"
)

// State is the whole transaction machine. At most one transaction is pending.
type State struct {
	Pending    *Transaction
	Generation int
}

func (s State) Phase() Phase {
	if s.Pending != nil {
		return PhasePending
	}
	return PhaseIdle
}

type CommandType string

const (
	CmdBegin   CommandType = "Begin"
	CmdConfirm CommandType = "Confirm"
	CmdReject  CommandType = "Reject"
	CmdTimeout CommandType = "Timeout"
)

/*
	CmdBegin   -> EvtStarted     (Idle -> Pending)
	CmdConfirm -> EvtConfirmed   (Pending -> Idle)
	CmdReject  -> EvtRejected    (Pending -> Idle)
	CmdTimeout -> EvtTimedOut    (Pending -> Idle, only for the generation that armed the timer)
*/

type Command struct {
	Type CommandType

	// Begin
	Intent    Intent
	Connected bool
	ID        uuid.UUID
	Now       time.Time

	// Confirm. TeamID must match for drafts.
	PlayerID int
	TeamID   int
	Kind     Kind

	// Reject
	Message string

	// Timeout
	Generation int
}

type EventType string

const (
	EvtStarted   EventType = "Started"
	EvtConfirmed EventType = "Confirmed"
	EvtRejected  EventType = "Rejected"
	EvtTimedOut  EventType = "TimedOut"
)

type Event struct {
	Type        EventType
	Transaction Transaction
	Message     string
}

func Apply(s State, cmd Command) ([]Event, State, error) {
	newState := s

	switch cmd.Type {
	case CmdBegin:
		// Order matters: selection, then connection, then mutual exclusion.
		if cmd.Intent.PlayerID == 0 {
			return nil, s, ErrNoPlayerSelected
		}
		if !cmd.Connected {
			return nil, s, ErrNotConnected
		}
		if s.Pending != nil {
			return nil, s, ErrTransactionPending
		}

		id := cmd.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		newState.Generation = s.Generation + 1
		tx := Transaction{ID: id, Intent: cmd.Intent, IssuedAt: cmd.Now, Generation: newState.Generation}
		newState.Pending = &tx
		return []Event{{Type: EvtStarted, Transaction: tx}}, newState, nil

	case CmdConfirm:
		if !s.Pending.Matches(cmd.Kind, cmd.PlayerID, cmd.TeamID) {
			return nil, s, ErrNoMatchingTransaction
		}
		tx := *s.Pending
		newState.Pending = nil
		return []Event{{Type: EvtConfirmed, Transaction: tx}}, newState, nil

	case CmdReject:
		if s.Pending == nil {
			return nil, s, ErrNoPendingTransaction
		}
		tx := *s.Pending
		newState.Pending = nil
		return []Event{{Type: EvtRejected, Transaction: tx, Message: cmd.Message}}, newState, nil

	case CmdTimeout:
		if s.Pending == nil || s.Pending.Generation != cmd.Generation {
			return nil, s, ErrStaleTimeout
		}
		tx := *s.Pending
		newState.Pending = nil
		return []Event{{Type: EvtTimedOut, Transaction: tx}}, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// Outcome names how a transaction settled, for metrics and the journal.
func Outcome(t EventType) string {
	switch t {
	case EvtConfirmed:
		return "confirmed"
	case EvtRejected:
		return "rejected"
	case EvtTimedOut:
		return "timed_out"
	default:
		return "started"
	}
}
