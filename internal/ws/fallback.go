package ws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// FallbackDialer is the constrained transport: one handshake, no compression, no reconnect.
type FallbackDialer struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Logger           *zap.Logger
}

func (d FallbackDialer) Dial(ctx context.Context, url string, header http.Header, onMessage MessageHandler) (Channel, error) {
	dialer := websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  d.HandshakeTimeout,
		EnableCompression: false,
	}
	c, resp, err := dialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("fallback dial %s: %w", url, err)
	}
	return newConnection(&gorillaConn{c: c}, "fallback", d.WriteTimeout, onMessage, d.Logger), nil
}

// gorillaConn allows one reader and one writer at a time; the pumps guarantee that.
type gorillaConn struct {
	c *websocket.Conn
}

func (gc *gorillaConn) read(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := gc.c.ReadMessage()
		if err != nil {
			return nil, err
		}
		if typ == websocket.TextMessage || typ == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (gc *gorillaConn) write(ctx context.Context, frame []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := gc.c.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	return gc.c.WriteMessage(websocket.TextMessage, frame)
}

func (gc *gorillaConn) close(reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = gc.c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = gc.c.Close()
}
