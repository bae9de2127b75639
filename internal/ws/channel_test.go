package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// coder/websocket echo server
func coderEcho(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "bye")
		for {
			typ, data, err := c.Read(r.Context())
			if err != nil {
				return
			}
			if err := c.Write(r.Context(), typ, data); err != nil {
				return
			}
		}
	}))
}

// gorilla echo server that hangs up after the first frame
func gorillaEchoOnce(t *testing.T) *httptest.Server {
	t.Helper()
	up := gorilla.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		typ, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		_ = c.WriteMessage(typ, data)
	}))
}

func wsURL(s *httptest.Server) string { return "ws" + strings.TrimPrefix(s.URL, "http") }

func recvFrame(t *testing.T, ch <-chan []byte, within time.Duration) []byte {
	t.Helper()
	select {
	case f := <-ch:
		return f
	case <-time.After(within):
		t.Fatalf("timed out waiting for frame")
		return nil
	}
}

func TestPrimaryDialer_EchoRoundTrip(t *testing.T) {
	srv := coderEcho(t)
	defer srv.Close()

	frames := make(chan []byte, 4)
	d := PrimaryDialer{WriteTimeout: time.Second, Logger: zaptest.NewLogger(t)}
	ch, err := d.Dial(context.Background(), wsURL(srv), nil, func(f []byte) { frames <- f })
	require.NoError(t, err)
	defer ch.Close()

	require.NoError(t, ch.Send([]byte(`{"event":"join_draft_room"}`)))
	assert.JSONEq(t, `{"event":"join_draft_room"}`, string(recvFrame(t, frames, time.Second)))
}

func TestFallbackDialer_ServerHangupClosesChannel(t *testing.T) {
	srv := gorillaEchoOnce(t)
	defer srv.Close()

	frames := make(chan []byte, 4)
	d := FallbackDialer{HandshakeTimeout: time.Second, WriteTimeout: time.Second, Logger: zaptest.NewLogger(t)}
	ch, err := d.Dial(context.Background(), wsURL(srv), nil, func(f []byte) { frames <- f })
	require.NoError(t, err)

	require.NoError(t, ch.Send([]byte(`{"event":"x"}`)))
	recvFrame(t, frames, time.Second)

	select {
	case <-ch.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("channel should close after server hangup")
	}
	assert.Error(t, ch.Err())
	assert.ErrorIs(t, ch.Send([]byte("late")), ErrClosed)
}

func TestLocalCloseHasNoError(t *testing.T) {
	srv := coderEcho(t)
	defer srv.Close()

	ch, err := PrimaryDialer{}.Dial(context.Background(), wsURL(srv), nil, nil)
	require.NoError(t, err)

	ch.Close()
	ch.Close()
	<-ch.Done()
	assert.NoError(t, ch.Err())
}

func TestDialErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := PrimaryDialer{}.Dial(ctx, "ws://127.0.0.1:1/socket", nil, nil)
	assert.Error(t, err)

	_, err = FallbackDialer{HandshakeTimeout: 200 * time.Millisecond}.Dial(ctx, "ws://127.0.0.1:1/socket", nil, nil)
	assert.Error(t, err)
}
