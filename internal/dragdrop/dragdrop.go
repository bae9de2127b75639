package dragdrop

import (
	"errors"
	"fmt"

	"github.com/DoyleJ11/draftboard/internal/engine"
	"github.com/DoyleJ11/draftboard/internal/roster"
	"github.com/DoyleJ11/draftboard/internal/ui"
)

var ErrNothingDragged = errors.New("no drag in progress")

// Accept is the single intent entry point shared with the manual draft button.
type Accept func(engine.Intent) error

// Controller tracks the one drag gesture a tab can have in flight.
// It never changes the board; it only turns drops into intents.
type Controller struct {
	roster  *roster.Roster
	toaster ui.Toaster

	dragged int
}

func New(r *roster.Roster, t ui.Toaster) *Controller {
	return &Controller{roster: r, toaster: t}
}

func (c *Controller) OnDragStart(playerID int) error {
	if c.roster.Card(playerID) == nil {
		return roster.ErrUnknownPlayer
	}
	c.dragged = playerID
	return nil
}

// Dragged returns the player being dragged, if any.
func (c *Controller) Dragged() (int, bool) { return c.dragged, c.dragged != 0 }

func (c *Controller) OnDrop(teamID int, accept Accept) error {
	id, ok := c.take()
	if !ok {
		return ErrNothingDragged
	}
	team := c.roster.Team(teamID)
	if team == nil {
		return roster.ErrUnknownTeam
	}
	card := c.roster.Card(id)
	if card == nil {
		return roster.ErrUnknownPlayer
	}
	if c.roster.Holds(teamID, id) {
		c.toaster.Toast(fmt.Sprintf("%s is already on %s", card.Player.Name, team.Name), ui.SeverityWarning)
		return roster.ErrAlreadyPresent
	}
	return accept(engine.Intent{
		Kind:       engine.KindDraft,
		PlayerID:   id,
		PlayerName: card.Player.Name,
		TeamID:     teamID,
		TeamName:   team.Name,
	})
}

// OnDropToAvailable turns a drop on the pool into a remove from the player's current team.
func (c *Controller) OnDropToAvailable(accept Accept) error {
	id, ok := c.take()
	if !ok {
		return ErrNothingDragged
	}
	card := c.roster.Card(id)
	loc, located := c.roster.Locate(id)
	if card == nil || !located {
		return roster.ErrUnknownPlayer
	}
	if loc.IsAvailable() {
		c.toaster.Toast(fmt.Sprintf("%s is already available", card.Player.Name), ui.SeverityWarning)
		return roster.ErrAlreadyPresent
	}
	in := engine.Intent{Kind: engine.KindRemove, PlayerID: id, PlayerName: card.Player.Name, TeamID: loc.TeamID}
	if team := c.roster.Team(loc.TeamID); team != nil {
		in.TeamName = team.Name
	}
	return accept(in)
}

func (c *Controller) take() (int, bool) {
	id := c.dragged
	c.dragged = 0
	return id, id != 0
}
