package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("channel closed")
var ErrSendBufferFull = errors.New("send buffer full")

// MessageHandler receives every inbound frame, in arrival order, on the read goroutine.
type MessageHandler func(frame []byte)

// Channel is one open duplex connection to the draft server.
type Channel interface {
	Send(frame []byte) error
	Close()
	// Done is closed once the channel is fully torn down.
	Done() <-chan struct{}
	// Err reports why the channel closed; nil for a local Close.
	Err() error
}

type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header, onMessage MessageHandler) (Channel, error)
}

// frameConn hides the differences between the two websocket libraries.
type frameConn interface {
	read(ctx context.Context) ([]byte, error)
	write(ctx context.Context, frame []byte) error
	close(reason string)
}

type connection struct {
	id           uuid.UUID
	conn         frameConn
	send         chan []byte
	writeTimeout time.Duration
	onMessage    MessageHandler

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
	mu        sync.Mutex
	err       error

	logger *zap.Logger
}

func newConnection(fc frameConn, transport string, writeTimeout time.Duration, onMessage MessageHandler, logger *zap.Logger) *connection {
	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	if writeTimeout <= 0 {
		writeTimeout = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &connection{
		id:           id,
		conn:         fc,
		send:         make(chan []byte, 64),
		writeTimeout: writeTimeout,
		onMessage:    onMessage,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
		logger:       logger.With(zap.String("transport", transport), zap.String("connID", id.String())),
	}
	go c.readPump()
	go c.writePump()
	c.logger.Debug("channel open")
	return c
}

func (c *connection) readPump() {
	for {
		frame, err := c.conn.read(c.ctx)
		if err != nil {
			c.shutdown(err)
			return
		}
		if c.onMessage != nil {
			c.onMessage(frame)
		}
	}
}

func (c *connection) writePump() {
	for {
		select {
		case frame := <-c.send:
			ctx, cancel := context.WithTimeout(c.ctx, c.writeTimeout)
			err := c.conn.write(ctx, frame)
			cancel()
			if err != nil {
				c.shutdown(err)
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// Send queues a frame for the write pump. Safe for concurrent use.
func (c *connection) Send(frame []byte) error {
	if c.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.ctx.Done():
		return ErrClosed
	default:
		return ErrSendBufferFull
	}
}

func (c *connection) Close() { c.shutdown(nil) }

func (c *connection) shutdown(err error) {
	c.closeOnce.Do(func() {
		// A read error caused by our own cancel is a local close.
		if c.ctx.Err() != nil {
			err = nil
		}
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()

		c.cancel()
		c.conn.close("client closing")
		if err != nil {
			c.logger.Info("channel dropped", zap.Error(err))
		} else {
			c.logger.Debug("channel closed")
		}
		close(c.done)
	})
}

func (c *connection) Done() <-chan struct{} { return c.done }

func (c *connection) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
