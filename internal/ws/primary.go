package ws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// PrimaryDialer opens the preferred realtime transport.
type PrimaryDialer struct {
	WriteTimeout time.Duration
	ReadLimit    int64
	Logger       *zap.Logger
}

func (d PrimaryDialer) Dial(ctx context.Context, url string, header http.Header, onMessage MessageHandler) (Channel, error) {
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("primary dial %s: %w", url, err)
	}
	if d.ReadLimit > 0 {
		c.SetReadLimit(d.ReadLimit)
	}
	return newConnection(coderConn{c}, "primary", d.WriteTimeout, onMessage, d.Logger), nil
}

type coderConn struct{ c *websocket.Conn }

func (cc coderConn) read(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := cc.c.Read(ctx)
		if err != nil {
			return nil, err
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, nil
		}
	}
}

func (cc coderConn) write(ctx context.Context, frame []byte) error {
	return cc.c.Write(ctx, websocket.MessageText, frame)
}

func (cc coderConn) close(reason string) {
	_ = cc.c.Close(websocket.StatusNormalClosure, reason)
}
