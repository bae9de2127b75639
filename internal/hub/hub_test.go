package hub

import (
	"context"
	"testing"
	"time"

	"github.com/DoyleJ11/draftboard/internal/conn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_Ensure_Get_SamePointer(t *testing.T) {
	h := NewHub(context.Background())
	defer func() { h.Inbox() <- ShutdownHub{} }()

	reply := make(chan *conn.Manager, 1)
	h.Inbox() <- EnsureManager{Options: conn.Options{URL: "ws://draft.test/socket"}, Reply: reply}
	m1 := <-reply

	h.Inbox() <- GetManager{URL: "ws://draft.test/socket", Reply: reply}
	m2 := <-reply

	if m1 == nil || m2 == nil || m1 != m2 {
		t.Fatalf("expected same manager pointer")
	}
}

func TestHub_IndependentWidgetsShareOneManager(t *testing.T) {
	h := NewHub(context.Background())
	defer func() { h.Inbox() <- ShutdownHub{} }()

	board := h.Ensure(conn.Options{URL: "ws://draft.test/socket", League: "Premier"})
	details := h.Ensure(conn.Options{URL: "ws://draft.test/socket"})
	other := h.Ensure(conn.Options{URL: "ws://other.test/socket"})

	require.NotNil(t, board)
	assert.Same(t, board, details)
	assert.NotSame(t, board, other)

	reply := make(chan int, 1)
	h.Inbox() <- listManagers{Reply: reply}
	assert.Equal(t, 2, <-reply)
}

func TestHub_GetUnknownIsNil(t *testing.T) {
	h := NewHub(context.Background())
	defer func() { h.Inbox() <- ShutdownHub{} }()

	reply := make(chan *conn.Manager, 1)
	h.Inbox() <- GetManager{URL: "ws://nowhere", Reply: reply}
	assert.Nil(t, <-reply)
}

func TestHub_RemoveClosesManager(t *testing.T) {
	h := NewHub(context.Background())
	defer func() { h.Inbox() <- ShutdownHub{} }()

	m := h.Ensure(conn.Options{URL: "ws://draft.test/socket"})
	h.Inbox() <- RemoveManager{URL: "ws://draft.test/socket"}

	reply := make(chan *conn.Manager, 1)
	h.Inbox() <- GetManager{URL: "ws://draft.test/socket", Reply: reply}
	assert.Nil(t, <-reply)
	assert.ErrorIs(t, m.Connect(context.Background(), conn.Callbacks{}), conn.ErrClosed)
}

func TestHub_ShutdownClosesEverything(t *testing.T) {
	h := NewHub(context.Background())
	m := h.Ensure(conn.Options{URL: "ws://draft.test/socket"})

	h.Inbox() <- ShutdownHub{}
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatalf("hub did not shut down")
	}
	assert.ErrorIs(t, m.Connect(context.Background(), conn.Callbacks{}), conn.ErrClosed)
	assert.Nil(t, h.Ensure(conn.Options{URL: "ws://draft.test/socket"}))
}
