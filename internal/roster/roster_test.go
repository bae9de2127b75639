package roster_test

import (
	"testing"
	"time"

	"github.com/DoyleJ11/draftboard/internal/roster"
	"github.com/DoyleJ11/draftboard/internal/testutil"
	"github.com/DoyleJ11/draftboard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	anim    = 300 * time.Millisecond
	recount = 100 * time.Millisecond
)

func newRoster(t *testing.T) (*roster.Roster, *testutil.ManualScheduler) {
	t.Helper()
	s := testutil.NewManualScheduler()
	r := roster.New(roster.Options{Scheduler: s, AnimationDelay: anim, RecountDelay: recount})
	r.Seed(testutil.Squad(), []roster.TeamSeed{
		{ID: 10, Name: "Reds"},
		{ID: 20, Name: "Blues", Players: []types.Player{testutil.Player(4, "Ana P.", "CM", 2)}},
	})
	return r, s
}

// exclusive checks that every located player sits in exactly one container.
func exclusive(t *testing.T, r *roster.Roster) {
	t.Helper()
	seen := map[int]int{}
	containers := append([]*roster.Container{r.Available()}, r.Teams()...)
	for _, c := range containers {
		for _, card := range c.Cards {
			if card.Leaving {
				continue
			}
			seen[card.PlayerID]++
			loc, ok := r.Locate(card.PlayerID)
			require.True(t, ok, "player %d has a card but no location", card.PlayerID)
			assert.Equal(t, c.TeamID, loc.TeamID, "player %d location mismatch", card.PlayerID)
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "player %d appears %d times", id, n)
	}
	assert.Equal(t, r.Size(), len(seen))
}

func TestSeed(t *testing.T) {
	r, _ := newRoster(t)
	assert.Equal(t, 3, r.Available().Badge)
	assert.Equal(t, 0, r.Team(10).Badge)
	assert.Equal(t, 1, r.Team(20).Badge)
	exclusive(t, r)
}

func TestAddToTeam_MovesOutOfAvailable(t *testing.T) {
	r, s := newRoster(t)
	mark := testutil.Squad()[0]

	require.True(t, r.AddToTeam(mark, 10, "Reds"))
	loc, _ := r.Locate(mark.ID)
	assert.Equal(t, 10, loc.TeamID)

	// the old card animates out; location is already updated
	require.Len(t, r.Available().Cards, 3)
	assert.True(t, r.Available().Cards[0].Leaving)
	exclusive(t, r)

	s.Advance(recount)
	assert.Equal(t, 1, r.Team(10).Badge)
	assert.Equal(t, 3, r.Available().Badge, "available badge waits for the animation")

	s.Advance(anim)
	assert.Len(t, r.Available().Cards, 2)
	s.Advance(recount)
	assert.Equal(t, 2, r.Available().Badge)
	assert.Zero(t, s.Pending())
	exclusive(t, r)
}

func TestAddToSameContainerIsNoop(t *testing.T) {
	r, s := newRoster(t)
	ana := testutil.Player(4, "Ana P.", "CM", 2)

	assert.False(t, r.AddToTeam(ana, 20, "Blues"))
	assert.False(t, r.AddToAvailable(testutil.Squad()[1]))
	assert.Zero(t, s.Pending())
	assert.Len(t, r.Team(20).Cards, 1)
}

func TestAddToTeam_FromOtherTeam(t *testing.T) {
	r, s := newRoster(t)
	ana := testutil.Player(4, "Ana P.", "CM", 2)

	require.True(t, r.AddToTeam(ana, 10, "Reds"))
	s.Advance(anim + recount)

	assert.Empty(t, r.Team(20).Cards)
	assert.Len(t, r.Team(10).Cards, 1)
	assert.Equal(t, 0, r.Team(20).Badge)
	assert.Equal(t, 1, r.Team(10).Badge)
	exclusive(t, r)
}

func TestAddToTeam_RegistersUnknownTeam(t *testing.T) {
	r, _ := newRoster(t)
	require.True(t, r.AddToTeam(testutil.Squad()[2], 30, "Greens"))
	require.NotNil(t, r.Team(30))
	assert.Equal(t, "Greens", r.Team(30).Name)
	assert.Len(t, r.Teams(), 3)
}

func TestRemoveIsDeferredUntilAnimationEnds(t *testing.T) {
	r, s := newRoster(t)

	require.True(t, r.RemoveFromTeam(4, 20))
	_, ok := r.Locate(4)
	assert.False(t, ok)
	require.Len(t, r.Team(20).Cards, 1, "node stays while animating")
	assert.True(t, r.Team(20).Cards[0].Leaving)
	assert.Nil(t, r.Card(4))

	s.Advance(anim - time.Millisecond)
	assert.Len(t, r.Team(20).Cards, 1)
	s.Advance(time.Millisecond)
	assert.Empty(t, r.Team(20).Cards)
	assert.Equal(t, 1, r.Team(20).Badge)
	s.Advance(recount)
	assert.Equal(t, 0, r.Team(20).Badge)
}

func TestRemoveFromWrongContainer(t *testing.T) {
	r, s := newRoster(t)
	assert.False(t, r.RemoveFromTeam(4, 10))
	assert.False(t, r.RemoveFromAvailable(4))
	assert.False(t, r.RemoveFromTeam(99, 20))
	assert.Zero(t, s.Pending())
}

func TestAvailableRoundTrip(t *testing.T) {
	r, s := newRoster(t)
	before := len(r.Available().Cards)

	p := testutil.Player(9, "New Guy", "LW", 1)
	require.True(t, r.AddToAvailable(p))
	require.True(t, r.RemoveFromAvailable(p.ID))
	s.Advance(anim + recount)

	assert.Equal(t, before, len(r.Available().Cards))
	assert.Equal(t, before, r.Available().Badge)
}

func TestAvailableInsertStartsHiddenAndHookDecides(t *testing.T) {
	r, _ := newRoster(t)
	var hooked []*roster.Card
	r.OnAvailableInsert(func(c *roster.Card) {
		assert.True(t, c.Hidden, "card must not be visible before the hook runs")
		hooked = append(hooked, c)
		c.Hidden = c.PositionKey != "cb"
	})

	require.True(t, r.AddToAvailable(testutil.Player(9, "Keeper", "GK", 0)))
	require.True(t, r.AddToAvailable(testutil.Player(8, "Back", "CB", 0)))

	require.Len(t, hooked, 2)
	assert.False(t, hooked[0].Visible())
	assert.True(t, hooked[1].Visible())
}

func TestReaddWhileLeavingKeepsBothNodesApart(t *testing.T) {
	r, s := newRoster(t)
	mark := testutil.Squad()[0]

	require.True(t, r.AddToTeam(mark, 10, "Reds"))
	require.True(t, r.AddToAvailable(mark))
	exclusive(t, r)

	s.Advance(anim + recount)
	assert.Empty(t, r.Team(10).Cards)
	assert.Len(t, r.Available().Cards, 3)
	require.NotNil(t, r.Card(mark.ID))
	assert.False(t, r.Card(mark.ID).Leaving)
	exclusive(t, r)
}

func TestRecountAll(t *testing.T) {
	r := roster.New(roster.Options{Scheduler: testutil.NewManualScheduler()})
	r.AddToAvailable(testutil.Player(1, "A", "CB", 0))
	r.AddToTeam(testutil.Player(2, "B", "CB", 0), 10, "Reds")
	assert.Equal(t, 0, r.Available().Badge)

	r.Recount()
	assert.Equal(t, 1, r.Available().Badge)
	assert.Equal(t, 1, r.Team(10).Badge)
}

func TestWithoutSchedulerRunsInline(t *testing.T) {
	r := roster.New(roster.Options{})
	r.AddToAvailable(testutil.Player(1, "A", "CB", 0))
	assert.Equal(t, 1, r.Available().Badge)
	r.RemoveFromAvailable(1)
	assert.Empty(t, r.Available().Cards)
	assert.Equal(t, 0, r.Available().Badge)
}

func TestSetPositionAndSnapshot(t *testing.T) {
	r, _ := newRoster(t)
	require.True(t, r.SetPosition(4, "cam"))
	assert.False(t, r.SetPosition(99, "cam"))

	b := r.Snapshot()
	require.Len(t, b.Teams, 2)
	assert.Equal(t, "Blues", b.Teams[1].Name)
	assert.Equal(t, "cam", b.Teams[1].Cards[0].CurrentPosition)
	assert.Len(t, b.Available.Cards, 3)
}

func TestExclusivityUnderInterleavedEvents(t *testing.T) {
	r, s := newRoster(t)
	squad := testutil.Squad()

	steps := []func(){
		func() { r.AddToTeam(squad[0], 10, "Reds") },
		func() { r.AddToTeam(squad[0], 20, "Blues") },
		func() { r.AddToTeam(squad[1], 10, "Reds") },
		func() { r.AddToAvailable(squad[0]) },
		func() { r.RemoveFromTeam(squad[1].ID, 10) },
		func() { r.AddToAvailable(squad[1]) },
		func() { r.AddToTeam(squad[2], 20, "Blues") },
		func() { r.AddToTeam(squad[2], 20, "Blues") },
	}
	for i, step := range steps {
		step()
		exclusive(t, r)
		if i%2 == 0 {
			s.Advance(50 * time.Millisecond)
		}
	}
	s.Advance(time.Second)
	exclusive(t, r)
	r.Recount()
	total := r.Available().Badge
	for _, team := range r.Teams() {
		total += team.Badge
	}
	assert.Equal(t, 4, total)
}
