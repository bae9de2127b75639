package coordinator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DoyleJ11/draftboard/internal/engine"
	"github.com/DoyleJ11/draftboard/internal/journal"
	"github.com/DoyleJ11/draftboard/internal/types"
	"github.com/DoyleJ11/draftboard/internal/ui"
	"go.uber.org/zap"
)

func (c *Coordinator) onServerEvent(event string, payload []byte) {
	if league := types.League(payload); league != "" && event != types.EventJoinedRoom && league != c.league {
		c.logger.Debug("event for another league", zap.String("event", event), zap.String("other", league))
		return
	}

	switch event {
	case types.EventJoinedRoom:
		var msg types.JoinedRoom
		_ = json.Unmarshal(payload, &msg)
		c.logger.Info("joined draft room", zap.String("room", msg.Room))

	case types.EventPlayerDrafted:
		msg, ok := c.decodeMoved(event, payload)
		if !ok {
			return
		}
		// The board follows the server whether or not this client asked for the move.
		c.roster.AddToTeam(msg.Player, msg.TeamID, msg.TeamName)
		c.view.Reapply()
		switch {
		case c.confirm(msg.Player.ID, msg.TeamID, engine.KindDraft):
		case c.supersede(msg):
		default:
			c.changed()
		}

	case types.EventPlayerRemoved:
		msg, ok := c.decodeMoved(event, payload)
		if !ok {
			return
		}
		c.roster.AddToAvailable(msg.Player)
		if !c.confirm(msg.Player.ID, msg.TeamID, engine.KindRemove) {
			c.changed()
		}

	case types.EventDraftError, types.EventRemoveError, types.EventError:
		message := orDefault(types.Message(payload), "The draft server reported an error")
		kind, answers := errorKinds[event]
		switch {
		case answers && c.tx.Pending != nil && c.tx.Pending.Kind == kind:
			c.reject(message)
		case event == types.EventDraftError && c.tx.Pending == nil && c.staleDraftError:
			// The refusal of a draft already settled by another client's broadcast.
			c.staleDraftError = false
			c.logger.Debug("draft error for a superseded transaction", zap.String("message", message))
		default:
			c.opts.Toaster.Toast(message, ui.SeverityError)
		}

	case types.EventUserDrafting:
		var msg types.UserDrafting
		if err := json.Unmarshal(payload, &msg); err != nil || msg.Username == "" {
			return
		}
		if c.store.IsLocalUser(msg.Username) {
			return
		}
		text := fmt.Sprintf("%s is drafting %s", msg.Username, msg.PlayerName)
		if msg.TeamName != nil && *msg.TeamName != "" {
			text += " to " + *msg.TeamName
		}
		c.opts.Toaster.Notice(text, c.opts.NoticeTTL)

	case types.EventPositionUpdated:
		var msg types.PositionUpdated
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Warn("bad position update", zap.Error(err))
			return
		}
		if c.roster.SetPosition(msg.Player.ID, msg.Position) {
			c.changed()
		}
	}
}

// errorKinds maps error events to the transaction kind they answer.
// The generic error event answers position updates and room joins, never a transaction.
var errorKinds = map[string]engine.Kind{
	types.EventDraftError:  engine.KindDraft,
	types.EventRemoveError: engine.KindRemove,
}

// supersede ends a pending draft whose player was just drafted to another team by someone else.
func (c *Coordinator) supersede(msg types.PlayerMoved) bool {
	p := c.tx.Pending
	if p == nil || p.Kind != engine.KindDraft || p.PlayerID != msg.Player.ID {
		return false
	}
	c.staleDraftError = c.via == viaRealtime
	return c.reject(fmt.Sprintf("%s was drafted to %s", p.PlayerName, orDefault(msg.TeamName, "another team")))
}

func (c *Coordinator) decodeMoved(event string, payload []byte) (types.PlayerMoved, bool) {
	var msg types.PlayerMoved
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Warn("bad payload", zap.String("event", event), zap.Error(err))
		return msg, false
	}
	if msg.Player.ID == 0 {
		c.logger.Warn("payload without player", zap.String("event", event))
		return msg, false
	}
	return msg, true
}

// record writes the outcome to the journal off the loop.
func (c *Coordinator) record(tx engine.Transaction, outcome, message string, settled time.Time) {
	e := journal.Entry{
		TxID:       tx.ID,
		League:     c.league,
		Kind:       string(tx.Kind),
		PlayerID:   tx.PlayerID,
		PlayerName: tx.PlayerName,
		TeamID:     tx.TeamID,
		TeamName:   tx.TeamName,
		Outcome:    outcome,
		Message:    message,
		Via:        c.via,
		IssuedAt:   tx.IssuedAt,
		SettledAt:  settled,
		LatencyMS:  tx.Elapsed(settled).Milliseconds(),
	}
	store := c.opts.Journal
	go func() {
		if err := store.Record(c.ctx, e); err != nil {
			c.logger.Warn("journal write failed", zap.String("tx", e.TxID.String()), zap.Error(err))
		}
	}()
}
