package dragdrop

import (
	"testing"

	"github.com/DoyleJ11/draftboard/internal/engine"
	"github.com/DoyleJ11/draftboard/internal/roster"
	"github.com/DoyleJ11/draftboard/internal/testutil"
	"github.com/DoyleJ11/draftboard/internal/types"
	"github.com/DoyleJ11/draftboard/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Controller, *roster.Roster, *testutil.Sink) {
	t.Helper()
	r := roster.New(roster.Options{Scheduler: testutil.NewManualScheduler()})
	r.Seed(testutil.Squad(), []roster.TeamSeed{
		{ID: 10, Name: "Reds", Players: []types.Player{testutil.Player(4, "Ana P.", "CM", 2)}},
		{ID: 20, Name: "Blues"},
	})
	sink := testutil.NewSink()
	return New(r, sink), r, sink
}

type recorder struct{ intents []engine.Intent }

func (rec *recorder) accept(in engine.Intent) error {
	rec.intents = append(rec.intents, in)
	return nil
}

func TestDropOnTeam_ComputesDraftIntent(t *testing.T) {
	c, r, sink := setup(t)
	rec := &recorder{}

	require.NoError(t, c.OnDragStart(1))
	id, ok := c.Dragged()
	require.True(t, ok)
	assert.Equal(t, 1, id)

	require.NoError(t, c.OnDrop(20, rec.accept))
	require.Len(t, rec.intents, 1)
	assert.Equal(t, engine.Intent{Kind: engine.KindDraft, PlayerID: 1, PlayerName: "Mark T.", TeamID: 20, TeamName: "Blues"}, rec.intents[0])
	assert.Empty(t, sink.Toasts())

	// the controller leaves the board alone
	loc, _ := r.Locate(1)
	assert.True(t, loc.IsAvailable())
	_, ok = c.Dragged()
	assert.False(t, ok)
}

func TestDropOnTeamAlreadyHoldingPlayer(t *testing.T) {
	c, _, sink := setup(t)
	rec := &recorder{}

	require.NoError(t, c.OnDragStart(4))
	err := c.OnDrop(10, rec.accept)

	assert.ErrorIs(t, err, roster.ErrAlreadyPresent)
	assert.Empty(t, rec.intents)
	warnings := sink.ToastsOf(ui.SeverityWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Ana P. is already on Reds", warnings[0].Message)
}

func TestDropToAvailable_ComputesRemoveIntent(t *testing.T) {
	c, _, _ := setup(t)
	rec := &recorder{}

	require.NoError(t, c.OnDragStart(4))
	require.NoError(t, c.OnDropToAvailable(rec.accept))
	require.Len(t, rec.intents, 1)
	assert.Equal(t, engine.Intent{Kind: engine.KindRemove, PlayerID: 4, PlayerName: "Ana P.", TeamID: 10, TeamName: "Reds"}, rec.intents[0])
}

func TestDropAvailablePlayerOnPool(t *testing.T) {
	c, _, sink := setup(t)
	rec := &recorder{}

	require.NoError(t, c.OnDragStart(2))
	assert.ErrorIs(t, c.OnDropToAvailable(rec.accept), roster.ErrAlreadyPresent)
	assert.Empty(t, rec.intents)
	assert.Len(t, sink.ToastsOf(ui.SeverityWarning), 1)
}

func TestDropWithoutDrag(t *testing.T) {
	c, _, sink := setup(t)
	rec := &recorder{}

	assert.ErrorIs(t, c.OnDrop(10, rec.accept), ErrNothingDragged)
	assert.ErrorIs(t, c.OnDropToAvailable(rec.accept), ErrNothingDragged)
	assert.Empty(t, rec.intents)
	assert.Empty(t, sink.Toasts())
}

func TestDragUnknownPlayerAndTeam(t *testing.T) {
	c, _, _ := setup(t)
	rec := &recorder{}

	assert.ErrorIs(t, c.OnDragStart(99), roster.ErrUnknownPlayer)

	require.NoError(t, c.OnDragStart(1))
	assert.ErrorIs(t, c.OnDrop(77, rec.accept), roster.ErrUnknownTeam)
	assert.Empty(t, rec.intents)
}

func TestOnlyOneDragTracked(t *testing.T) {
	c, _, _ := setup(t)
	rec := &recorder{}

	require.NoError(t, c.OnDragStart(1))
	require.NoError(t, c.OnDragStart(2))
	require.NoError(t, c.OnDrop(20, rec.accept))
	require.Len(t, rec.intents, 1)
	assert.Equal(t, 2, rec.intents[0].PlayerID)
}
