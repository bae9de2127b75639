package roster

import (
	"errors"
	"strings"
	"time"

	"github.com/DoyleJ11/draftboard/internal/types"
)

var ErrAlreadyPresent = errors.New("player already in that container")
var ErrUnknownPlayer = errors.New("player not on the board")
var ErrUnknownTeam = errors.New("unknown team")

// Available is the TeamID of the available pool.
const Available = 0

// Scheduler runs f after d. Callbacks must run on the goroutine that owns the Roster.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type Fit string

const (
	FitNone     Fit = ""
	FitStrong   Fit = "strong"
	FitModerate Fit = "moderate"
)

// Card is one rendered player node. Its pointer is stable for as long as it is attached.
type Card struct {
	PlayerID    int
	Player      types.Player
	NameKey     string
	PositionKey string
	Goals       int
	Experience  int
	Attendance  float64

	Hidden  bool
	Leaving bool
	Fit     Fit
}

func newCard(p types.Player) *Card {
	return &Card{
		PlayerID:    p.ID,
		Player:      p,
		NameKey:     strings.ToLower(p.Name),
		PositionKey: strings.ToLower(p.FavoritePosition),
		Goals:       p.CareerGoals,
		Experience:  p.LeagueExperienceSeasons,
		Attendance:  p.AttendanceEstimate,
	}
}

// Visible is true when the card is attached, not animating out, and not filtered away.
func (c *Card) Visible() bool { return !c.Hidden && !c.Leaving }

type Container struct {
	TeamID int
	Name   string
	Cards  []*Card
	// Badge is the displayed count; only Recount writes it.
	Badge int
	// EmptyState is only meaningful for the available pool.
	EmptyState bool
}

func (c *Container) find(playerID int) *Card {
	for _, card := range c.Cards {
		if card.PlayerID == playerID && !card.Leaving {
			return card
		}
	}
	return nil
}

func (c *Container) detach(card *Card) {
	for i, cc := range c.Cards {
		if cc == card {
			c.Cards = append(c.Cards[:i], c.Cards[i+1:]...)
			return
		}
	}
}

// Location is where a player currently lives. TeamID Available means the pool.
type Location struct {
	TeamID int
}

func (l Location) IsAvailable() bool { return l.TeamID == Available }

type Options struct {
	Scheduler      Scheduler
	AnimationDelay time.Duration
	RecountDelay   time.Duration
}

// Roster is the in-memory board: one location per player plus the ordered card containers.
// It is not safe for concurrent use.
type Roster struct {
	loc       map[int]Location
	available *Container
	teams     map[int]*Container
	order     []int
	opts      Options

	onAvailableInsert func(*Card)
}

func New(opts Options) *Roster {
	return &Roster{
		loc:       make(map[int]Location),
		available: &Container{TeamID: Available, Name: "Available"},
		teams:     make(map[int]*Container),
		opts:      opts,
	}
}

// OnAvailableInsert sets the hook that decides whether a new available card is visible.
func (r *Roster) OnAvailableInsert(f func(*Card)) { r.onAvailableInsert = f }

func (r *Roster) RegisterTeam(teamID int, name string) *Container {
	if c := r.teams[teamID]; c != nil {
		if name != "" {
			c.Name = name
		}
		return c
	}
	c := &Container{TeamID: teamID, Name: name}
	r.teams[teamID] = c
	r.order = append(r.order, teamID)
	return c
}

type TeamSeed struct {
	ID      int
	Name    string
	Players []types.Player
}

// Seed loads the initial board without animations. Later entries win on duplicate players.
func (r *Roster) Seed(available []types.Player, teams []TeamSeed) {
	for _, p := range available {
		r.place(p, r.available)
	}
	for _, t := range teams {
		c := r.RegisterTeam(t.ID, t.Name)
		for _, p := range t.Players {
			r.place(p, c)
		}
	}
	r.recountNow(Available)
	for _, id := range r.order {
		r.recountNow(id)
	}
	if r.onAvailableInsert != nil {
		for _, c := range r.available.Cards {
			r.onAvailableInsert(c)
		}
	}
}

func (r *Roster) place(p types.Player, dst *Container) {
	if prev, ok := r.loc[p.ID]; ok {
		if src := r.container(prev.TeamID); src != nil {
			if c := src.find(p.ID); c != nil {
				src.detach(c)
			}
		}
	}
	dst.Cards = append(dst.Cards, newCard(p))
	r.loc[p.ID] = Location{TeamID: dst.TeamID}
}

func (r *Roster) AddToTeam(p types.Player, teamID int, teamName string) bool {
	if teamID == Available {
		return r.AddToAvailable(p)
	}
	dst := r.RegisterTeam(teamID, teamName)
	if !r.takeFromElsewhere(p.ID, teamID) {
		return false
	}
	dst.Cards = append(dst.Cards, newCard(p))
	r.loc[p.ID] = Location{TeamID: teamID}
	r.scheduleRecount(teamID, r.opts.RecountDelay)
	return true
}

func (r *Roster) AddToAvailable(p types.Player) bool {
	if !r.takeFromElsewhere(p.ID, Available) {
		return false
	}
	card := newCard(p)
	card.Hidden = true
	r.available.Cards = append(r.available.Cards, card)
	r.loc[p.ID] = Location{TeamID: Available}
	if r.onAvailableInsert != nil {
		r.onAvailableInsert(card)
	} else {
		card.Hidden = false
	}
	r.scheduleRecount(Available, r.opts.RecountDelay)
	return true
}

// takeFromElsewhere returns false when the player already sits in dst.
// A player found in another container is removed from it first.
func (r *Roster) takeFromElsewhere(playerID, dst int) bool {
	prev, ok := r.loc[playerID]
	if !ok {
		return true
	}
	if prev.TeamID == dst {
		return false
	}
	r.remove(playerID, prev.TeamID)
	return true
}

func (r *Roster) RemoveFromTeam(playerID, teamID int) bool {
	if teamID == Available {
		return r.RemoveFromAvailable(playerID)
	}
	if l, ok := r.loc[playerID]; !ok || l.TeamID != teamID {
		return false
	}
	r.remove(playerID, teamID)
	return true
}

func (r *Roster) RemoveFromAvailable(playerID int) bool {
	if l, ok := r.loc[playerID]; !ok || !l.IsAvailable() {
		return false
	}
	r.remove(playerID, Available)
	return true
}

// remove drops the location at once and detaches the card after the animation.
func (r *Roster) remove(playerID, teamID int) {
	delete(r.loc, playerID)
	src := r.container(teamID)
	if src == nil {
		return
	}
	card := src.find(playerID)
	if card == nil {
		return
	}
	card.Leaving = true
	r.after(r.opts.AnimationDelay, func() {
		src.detach(card)
		r.scheduleRecount(teamID, r.opts.RecountDelay)
	})
}

func (r *Roster) scheduleRecount(teamID int, d time.Duration) {
	r.after(d, func() { r.recountNow(teamID) })
}

func (r *Roster) after(d time.Duration, f func()) {
	if r.opts.Scheduler == nil {
		f()
		return
	}
	r.opts.Scheduler.AfterFunc(d, f)
}

// Recount recomputes the badge of the given containers, or of every container when none are named.
func (r *Roster) Recount(teamIDs ...int) {
	if len(teamIDs) == 0 {
		teamIDs = append([]int{Available}, r.order...)
	}
	for _, id := range teamIDs {
		r.recountNow(id)
	}
}

func (r *Roster) recountNow(teamID int) {
	if c := r.container(teamID); c != nil {
		c.Badge = len(c.Cards)
	}
}

func (r *Roster) container(teamID int) *Container {
	if teamID == Available {
		return r.available
	}
	return r.teams[teamID]
}

func (r *Roster) Locate(playerID int) (Location, bool) {
	l, ok := r.loc[playerID]
	return l, ok
}

// Holds reports whether the player currently lives in the given container.
func (r *Roster) Holds(teamID, playerID int) bool {
	l, ok := r.loc[playerID]
	return ok && l.TeamID == teamID
}

// Card returns the attached, non-leaving card for a player.
func (r *Roster) Card(playerID int) *Card {
	l, ok := r.loc[playerID]
	if !ok {
		return nil
	}
	if c := r.container(l.TeamID); c != nil {
		return c.find(playerID)
	}
	return nil
}

func (r *Roster) Available() *Container { return r.available }

func (r *Roster) Team(teamID int) *Container { return r.teams[teamID] }

func (r *Roster) Teams() []*Container {
	out := make([]*Container, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.teams[id])
	}
	return out
}

// SetPosition records a server-confirmed pitch position on the player's card.
func (r *Roster) SetPosition(playerID int, position string) bool {
	c := r.Card(playerID)
	if c == nil {
		return false
	}
	c.Player.CurrentPosition = position
	return true
}

// size is the number of players with a location.
func (r *Roster) size() int { return len(r.loc) }
