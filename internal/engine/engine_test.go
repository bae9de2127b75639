package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var draftMark = Intent{Kind: KindDraft, PlayerID: 1, PlayerName: "Mark T.", TeamID: 10, TeamName: "Reds"}

func pendingState(in Intent) State {
	tx := Transaction{ID: uuid.New(), Intent: in, Generation: 3}
	return State{Pending: &tx, Generation: 3}
}

func TestBeginPreconditions(t *testing.T) {
	cases := []struct {
		name    string
		setup   State
		cmd     Command
		wantErr error
	}{
		{
			name:    "no player selected wins over everything",
			setup:   pendingState(draftMark),
			cmd:     Command{Type: CmdBegin, Intent: Intent{Kind: KindDraft, TeamID: 10}, Connected: false},
			wantErr: ErrNoPlayerSelected,
		},
		{
			name:    "not connected is checked before pending",
			setup:   pendingState(draftMark),
			cmd:     Command{Type: CmdBegin, Intent: draftMark, Connected: false},
			wantErr: ErrNotConnected,
		},
		{
			name:    "second attempt while pending",
			setup:   pendingState(draftMark),
			cmd:     Command{Type: CmdBegin, Intent: Intent{Kind: KindDraft, PlayerID: 2, TeamID: 10}, Connected: true},
			wantErr: ErrTransactionPending,
		},
		{
			name:  "idle and connected",
			setup: State{},
			cmd:   Command{Type: CmdBegin, Intent: draftMark, Connected: true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, next, err := Apply(tc.setup, tc.cmd)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want %v, got %v", tc.wantErr, err)
				}
				if events != nil {
					t.Fatalf("refused begin must not emit events")
				}
				if next.Pending != tc.setup.Pending {
					t.Fatalf("refused begin must not touch state")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if !containsEvent(events, EvtStarted) {
				t.Fatalf("expected Started event")
			}
		})
	}
}

func TestBeginAssignsGenerationAndID(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.New()

	events, next, err := Apply(State{Generation: 4}, Command{Type: CmdBegin, Intent: draftMark, Connected: true, ID: id, Now: now})
	require.NoError(t, err)
	require.Len(t, events, 1)

	tx := events[0].Transaction
	assert.Equal(t, id, tx.ID)
	assert.Equal(t, 5, tx.Generation)
	assert.Equal(t, now, tx.IssuedAt)
	assert.Equal(t, PhasePending, next.Phase())
	assert.Equal(t, 5, next.Generation)

	_, auto, err := Apply(State{}, Command{Type: CmdBegin, Intent: draftMark, Connected: true})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, auto.Pending.ID)
}

func TestConfirm(t *testing.T) {
	s := pendingState(draftMark)

	_, _, err := Apply(s, Command{Type: CmdConfirm, PlayerID: 2, TeamID: 10, Kind: KindDraft})
	assert.ErrorIs(t, err, ErrNoMatchingTransaction, "different player")

	_, _, err = Apply(s, Command{Type: CmdConfirm, PlayerID: 1, TeamID: 10, Kind: KindRemove})
	assert.ErrorIs(t, err, ErrNoMatchingTransaction, "different kind")

	_, same, err := Apply(s, Command{Type: CmdConfirm, PlayerID: 1, TeamID: 20, Kind: KindDraft})
	assert.ErrorIs(t, err, ErrNoMatchingTransaction, "drafted to another team")
	assert.Equal(t, PhasePending, same.Phase())

	_, _, err = Apply(State{}, Command{Type: CmdConfirm, PlayerID: 1, TeamID: 10, Kind: KindDraft})
	assert.ErrorIs(t, err, ErrNoMatchingTransaction, "nothing pending")

	events, next, err := Apply(s, Command{Type: CmdConfirm, PlayerID: 1, TeamID: 10, Kind: KindDraft})
	require.NoError(t, err)
	assert.Equal(t, EvtConfirmed, events[0].Type)
	assert.Equal(t, "Reds", events[0].Transaction.TeamName)
	assert.Equal(t, PhaseIdle, next.Phase())
}

func TestTransactionMatches(t *testing.T) {
	draft := pendingState(draftMark).Pending
	remove := pendingState(Intent{Kind: KindRemove, PlayerID: 4, TeamID: 10}).Pending

	cases := []struct {
		name   string
		tx     *Transaction
		kind   Kind
		player int
		team   int
		want   bool
	}{
		{"draft same team", draft, KindDraft, 1, 10, true},
		{"draft other team", draft, KindDraft, 1, 20, false},
		{"draft other player", draft, KindDraft, 2, 10, false},
		{"remove ignores team", remove, KindRemove, 4, 0, true},
		{"remove answered by draft", remove, KindDraft, 4, 10, false},
		{"nothing pending", nil, KindDraft, 1, 10, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.tx.Matches(tc.kind, tc.player, tc.team))
		})
	}
}

func TestReject(t *testing.T) {
	_, _, err := Apply(State{}, Command{Type: CmdReject, Message: "nope"})
	assert.ErrorIs(t, err, ErrNoPendingTransaction)

	events, next, err := Apply(pendingState(draftMark), Command{Type: CmdReject, Message: "Player already drafted"})
	require.NoError(t, err)
	assert.Equal(t, EvtRejected, events[0].Type)
	assert.Equal(t, "Player already drafted", events[0].Message)
	assert.Equal(t, PhaseIdle, next.Phase())
}

func TestTimeoutGenerationGuard(t *testing.T) {
	s := pendingState(draftMark)

	_, same, err := Apply(s, Command{Type: CmdTimeout, Generation: 2})
	assert.ErrorIs(t, err, ErrStaleTimeout)
	assert.Equal(t, PhasePending, same.Phase())

	events, next, err := Apply(s, Command{Type: CmdTimeout, Generation: 3})
	require.NoError(t, err)
	assert.Equal(t, EvtTimedOut, events[0].Type)
	assert.Equal(t, PhaseIdle, next.Phase())

	// a new attempt is allowed once the timeout has cleared the slot
	_, again, err := Apply(next, Command{Type: CmdBegin, Intent: draftMark, Connected: true})
	require.NoError(t, err)
	assert.Equal(t, 4, again.Pending.Generation)

	_, _, err = Apply(again, Command{Type: CmdTimeout, Generation: 3})
	assert.ErrorIs(t, err, ErrStaleTimeout, "old timer must not end the new transaction")
}

func TestUnsupportedCommand(t *testing.T) {
	_, _, err := Apply(State{}, Command{Type: "Bogus"})
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
}

func TestOutcomeAndElapsed(t *testing.T) {
	assert.Equal(t, "confirmed", Outcome(EvtConfirmed))
	assert.Equal(t, "rejected", Outcome(EvtRejected))
	assert.Equal(t, "timed_out", Outcome(EvtTimedOut))

	issued := time.Now()
	tx := Transaction{IssuedAt: issued}
	assert.Equal(t, 2*time.Second, tx.Elapsed(issued.Add(2*time.Second)))
	assert.Zero(t, Transaction{}.Elapsed(issued))
}
