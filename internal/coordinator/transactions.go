package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DoyleJ11/draftboard/internal/conn"
	"github.com/DoyleJ11/draftboard/internal/draftapi"
	"github.com/DoyleJ11/draftboard/internal/dragdrop"
	"github.com/DoyleJ11/draftboard/internal/engine"
	"github.com/DoyleJ11/draftboard/internal/roster"
	"github.com/DoyleJ11/draftboard/internal/types"
	"github.com/DoyleJ11/draftboard/internal/ui"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	viaRealtime = "realtime"
	viaHTTP     = "http"
)

// begin is the single entry point for draft and remove intents, from buttons and drops alike.
func (c *Coordinator) begin(in engine.Intent) error {
	if in.PlayerID != 0 {
		if err := c.resolve(&in); err != nil {
			c.refuse(in.Kind, err)
			return err
		}
	}

	via := c.route(in.Kind)
	evts, next, err := engine.Apply(c.tx, engine.Command{
		Type:      engine.CmdBegin,
		Intent:    in,
		Connected: via != "",
		ID:        uuid.New(),
		Now:       c.opts.Now(),
	})
	if err != nil {
		c.refuse(in.Kind, err)
		return err
	}
	c.tx = next
	c.via = via
	c.staleDraftError = false
	tx := evts[0].Transaction
	c.opts.Loader.ShowLoading()
	c.opts.Scheduler.AfterFunc(c.opts.TransactionTimeout, func() { c.post(timeout{Generation: tx.Generation}) })
	c.logger.Info("transaction started",
		zap.String("tx", tx.ID.String()),
		zap.String("kind", string(tx.Kind)),
		zap.Int("player", tx.PlayerID),
		zap.Int("team", tx.TeamID))

	switch via {
	case viaRealtime:
		if err := c.emit(tx); err != nil {
			c.reject(fmt.Sprintf("Could not reach the draft server: %v", err))
			return fmt.Errorf("%w: %v", engine.ErrNotConnected, err)
		}
	case viaHTTP:
		go c.draftOverHTTP(tx, c.opts.API)
	}
	c.changed()
	return nil
}

// resolve fills in names and checks the intent against the board.
func (c *Coordinator) resolve(in *engine.Intent) error {
	card := c.roster.Card(in.PlayerID)
	if card == nil {
		return roster.ErrUnknownPlayer
	}
	in.PlayerName = card.Player.Name
	team := c.roster.Team(in.TeamID)
	if team == nil {
		return roster.ErrUnknownTeam
	}
	in.TeamName = team.Name

	switch in.Kind {
	case engine.KindDraft:
		if c.roster.Holds(in.TeamID, in.PlayerID) {
			return roster.ErrAlreadyPresent
		}
	case engine.KindRemove:
		if !c.roster.Holds(in.TeamID, in.PlayerID) {
			return roster.ErrUnknownPlayer
		}
	}
	return nil
}

// route picks the path an intent takes to the server, or "" when it has none.
// Connection state is read once so the check and the send agree.
// Drafts fall back to HTTP once realtime is degraded; removes have no HTTP path.
func (c *Coordinator) route(kind engine.Kind) string {
	st := c.rt.State()
	switch {
	case st.Connected():
		return viaRealtime
	case kind == engine.KindDraft && c.opts.API != nil && st.Status == conn.Degraded:
		return viaHTTP
	default:
		return ""
	}
}

func (c *Coordinator) emit(tx engine.Transaction) error {
	if tx.Kind == engine.KindRemove {
		return c.rt.Emit(types.EventRemovePlayer, types.RemovePlayer{
			PlayerID:   tx.PlayerID,
			TeamID:     tx.TeamID,
			LeagueName: c.league,
		})
	}
	return c.rt.Emit(types.EventDraftPlayer, types.DraftPlayer{
		PlayerID:   tx.PlayerID,
		TeamID:     tx.TeamID,
		LeagueName: c.league,
		PlayerName: tx.PlayerName,
	})
}

func (c *Coordinator) draftOverHTTP(tx engine.Transaction, api DraftAPI) {
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.HTTPTimeout)
	defer cancel()
	resp, err := api.DraftPlayer(ctx, draftapi.DraftRequest{
		PlayerID:   tx.PlayerID,
		TeamID:     tx.TeamID,
		LeagueName: c.league,
	})
	c.post(httpSettled{Generation: tx.Generation, Resp: resp, Err: err})
}

func (c *Coordinator) onHTTPSettled(msg httpSettled) {
	p := c.tx.Pending
	if p == nil || p.Generation != msg.Generation {
		c.logger.Debug("late http draft result dropped", zap.Int("generation", msg.Generation))
		return
	}
	if msg.Err != nil {
		var apiErr *draftapi.APIError
		if errors.As(msg.Err, &apiErr) && apiErr.Message != "" {
			c.reject(apiErr.Message)
		} else {
			c.reject(fmt.Sprintf("Draft request failed: %v", msg.Err))
		}
		return
	}
	if !msg.Resp.Success {
		c.reject(orDefault(msg.Resp.Message, "Draft failed"))
		return
	}

	player := mergePlayer(c.roster.Card(p.PlayerID), msg.Resp.Player, p.PlayerID, p.PlayerName)
	teamName := orDefault(msg.Resp.TeamName, p.TeamName)
	c.roster.AddToTeam(player, p.TeamID, teamName)
	c.view.Reapply()
	c.confirm(p.PlayerID, p.TeamID, engine.KindDraft)
}

// mergePlayer keeps the full profile already on the board. The HTTP draft response
// carries a trimmed player, so only its non-empty fields are copied over.
func mergePlayer(card *roster.Card, resp *types.Player, id int, name string) types.Player {
	var p types.Player
	switch {
	case card != nil:
		p = card.Player
	case resp != nil:
		return *resp
	default:
		return types.Player{ID: id, Name: name}
	}
	if resp == nil {
		return p
	}
	if resp.Name != "" {
		p.Name = resp.Name
	}
	if resp.ProfilePictureURL != "" {
		p.ProfilePictureURL = resp.ProfilePictureURL
	}
	if resp.ExperienceLevel != "" {
		p.ExperienceLevel = resp.ExperienceLevel
	}
	if resp.CurrentPosition != "" {
		p.CurrentPosition = resp.CurrentPosition
	}
	return p
}

func (c *Coordinator) onTimeout(generation int) {
	evts, next, err := engine.Apply(c.tx, engine.Command{Type: engine.CmdTimeout, Generation: generation})
	if err != nil {
		return
	}
	c.tx = next
	c.settle(evts[0])
}

// confirm settles the pending transaction if it matches. It reports whether one did.
func (c *Coordinator) confirm(playerID, teamID int, kind engine.Kind) bool {
	evts, next, err := engine.Apply(c.tx, engine.Command{Type: engine.CmdConfirm, PlayerID: playerID, TeamID: teamID, Kind: kind})
	if err != nil {
		return false
	}
	c.tx = next
	c.settle(evts[0])
	return true
}

func (c *Coordinator) reject(message string) bool {
	evts, next, err := engine.Apply(c.tx, engine.Command{Type: engine.CmdReject, Message: message})
	if err != nil {
		return false
	}
	c.tx = next
	c.settle(evts[0])
	return true
}

// settle ends the pending state: indicator off, one notice, metrics and journal.
func (c *Coordinator) settle(ev engine.Event) {
	tx := ev.Transaction
	now := c.opts.Now()
	outcome := engine.Outcome(ev.Type)

	c.opts.Loader.HideLoading()
	switch ev.Type {
	case engine.EvtConfirmed:
		if tx.Kind == engine.KindRemove {
			c.opts.Toaster.Toast(fmt.Sprintf("%s removed from %s", tx.PlayerName, tx.TeamName), ui.SeveritySuccess)
		} else {
			c.opts.Toaster.Toast(fmt.Sprintf("%s drafted to %s", tx.PlayerName, tx.TeamName), ui.SeveritySuccess)
		}
		if sel, ok := c.store.Selected(); ok && sel == tx.PlayerID {
			c.store.ClearSelection()
		}
	case engine.EvtRejected:
		c.opts.Toaster.Toast(orDefault(ev.Message, "The server refused the request"), ui.SeverityError)
	case engine.EvtTimedOut:
		c.opts.Toaster.Toast(fmt.Sprintf("No answer from the server about %s. Check the board before trying again.", tx.PlayerName), ui.SeverityWarning)
	}

	c.metrics.Transaction(string(tx.Kind), outcome, tx.Elapsed(now))
	c.logger.Info("transaction settled",
		zap.String("tx", tx.ID.String()),
		zap.String("outcome", outcome),
		zap.String("via", c.via),
		zap.Duration("elapsed", tx.Elapsed(now)))
	c.record(tx, outcome, ev.Message, now)
	c.via = ""
	c.changed()
}

// refuse surfaces a precondition failure. No transaction exists and nothing was sent.
func (c *Coordinator) refuse(kind engine.Kind, err error) {
	msg, sev, reason := refusal(kind, err)
	c.opts.Toaster.Toast(msg, sev)
	c.metrics.Refused(string(kind), reason)
	c.logger.Debug("intent refused", zap.String("kind", string(kind)), zap.Error(err))
}

func refusal(kind engine.Kind, err error) (string, ui.Severity, string) {
	switch {
	case errors.Is(err, engine.ErrNoPlayerSelected):
		return "Select a player first", ui.SeverityWarning, "no_selection"
	case errors.Is(err, engine.ErrNotConnected):
		if kind == engine.KindRemove {
			return "Not connected to the draft server. Removing players needs a live connection.", ui.SeverityError, "not_connected"
		}
		return "Not connected to the draft server", ui.SeverityError, "not_connected"
	case errors.Is(err, engine.ErrTransactionPending):
		return "Please wait for the current draft to finish", ui.SeverityWarning, "pending"
	case errors.Is(err, roster.ErrAlreadyPresent):
		return "That player is already on this team", ui.SeverityWarning, "already_present"
	case errors.Is(err, roster.ErrUnknownTeam):
		return "Unknown team", ui.SeverityError, "invalid"
	default:
		return "That player is not available for this action", ui.SeverityError, "invalid"
	}
}

func (c *Coordinator) selectPlayer(playerID int) error {
	if playerID == 0 {
		c.store.ClearSelection()
		c.changed()
		return nil
	}
	if c.roster.Card(playerID) == nil {
		c.opts.Toaster.Toast("That player is no longer on the board", ui.SeverityError)
		return roster.ErrUnknownPlayer
	}
	c.store.Select(playerID)
	c.changed()
	return nil
}

func (c *Coordinator) drop(msg Drop) error {
	accepted := false
	accept := func(in engine.Intent) error {
		accepted = true
		return c.begin(in)
	}
	var err error
	if msg.ToAvailable {
		err = c.dnd.OnDropToAvailable(accept)
	} else {
		err = c.dnd.OnDrop(msg.TeamID, accept)
	}
	if err != nil && !accepted && !errors.Is(err, roster.ErrAlreadyPresent) {
		switch {
		case errors.Is(err, dragdrop.ErrNothingDragged):
			c.opts.Toaster.Toast("Nothing is being dragged", ui.SeverityWarning)
		case errors.Is(err, roster.ErrUnknownTeam):
			c.opts.Toaster.Toast("Unknown team", ui.SeverityError)
		default:
			c.opts.Toaster.Toast("That player is no longer on the board", ui.SeverityError)
		}
	}
	return err
}

func (c *Coordinator) setView(msg SetView) int {
	n := -1
	if msg.Query != nil {
		n = c.view.ApplySearch(*msg.Query)
	}
	if msg.Position != nil {
		n = c.view.ApplyFilter(*msg.Position)
	}
	if msg.SortKey != nil {
		n = c.view.ApplySort(*msg.SortKey)
	}
	if n < 0 {
		n = c.view.Reapply()
	}
	c.changed()
	return n
}

func (c *Coordinator) openTeam(teamID int) error {
	if c.roster.Team(teamID) == nil {
		return roster.ErrUnknownTeam
	}
	c.store.SetActiveTeam(teamID)
	c.fit.Refresh(c.ctx, teamID)
	c.changed()
	return nil
}

func (c *Coordinator) updatePosition(msg UpdatePosition) error {
	pos := strings.ToLower(strings.TrimSpace(msg.Position))
	if !types.ValidPosition(pos) {
		c.opts.Toaster.Toast(fmt.Sprintf("Invalid position %q", msg.Position), ui.SeverityError)
		return ErrInvalidPosition
	}
	if !c.roster.Holds(msg.TeamID, msg.PlayerID) || msg.TeamID == roster.Available {
		c.opts.Toaster.Toast("That player is not on this team", ui.SeverityError)
		return roster.ErrUnknownPlayer
	}
	if !c.rt.IsConnected() {
		c.opts.Toaster.Toast("Not connected to the draft server", ui.SeverityError)
		return engine.ErrNotConnected
	}
	return c.rt.Emit(types.EventUpdatePosition, types.UpdatePosition{
		PlayerID:   msg.PlayerID,
		TeamID:     msg.TeamID,
		Position:   pos,
		LeagueName: c.league,
	})
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
