// Package transport opens and owns the duplex byte stream for a channel.
//
// A Conn wraps one net.Conn and runs a single read pump that decodes
// length-prefixed frames. Consumers receive frames from Frames() and observe
// peer disconnection on Disconnected(); both are plain channel receives, so
// they compose into a select race. A Conn has single-owner semantics and
// never outlives one request/response exchange.
package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tetherlab/tether/wire"
	"go.uber.org/zap"
)

type Conn struct {
	log  *zap.SugaredLogger
	conn net.Conn

	frames       chan []byte
	disconnected chan struct{}
	done         chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewConn takes ownership of nc and starts its read pump.
func NewConn(log *zap.SugaredLogger, nc net.Conn) *Conn {
	c := &Conn{
		log:          log.Named("conn"),
		conn:         nc,
		frames:       make(chan []byte, 1),
		disconnected: make(chan struct{}),
		done:         make(chan struct{}),
	}
	go c.pump()
	return c
}

func (c *Conn) pump() {
	for {
		body, err := wire.ReadFrame(c.conn)
		if err != nil {
			c.log.Debugf("read pump stopping: %s", err)
			close(c.frames)
			close(c.disconnected)
			return
		}
		select {
		case c.frames <- body:
		case <-c.done:
			close(c.frames)
			close(c.disconnected)
			return
		}
	}
}

// Frames delivers decoded frame bodies. The channel is closed when the peer
// closes its end of the stream or the Conn is closed.
func (c *Conn) Frames() <-chan []byte {
	return c.frames
}

// Disconnected is closed when the peer closes its end of the stream.
func (c *Conn) Disconnected() <-chan struct{} {
	return c.disconnected
}

// WriteFrame writes one frame, bounded by ctx: both its deadline and its
// cancellation unblock an in-flight write. A worker that accepts the
// connection but never reads must not wedge the caller.
func (c *Conn) WriteFrame(ctx context.Context, body []byte) error {
	if d, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(d)
	}

	watchDone := make(chan struct{})
	watchExited := make(chan struct{})
	go func() {
		defer close(watchExited)
		select {
		case <-ctx.Done():
			// Expire the in-flight write immediately; the blocked
			// Write returns a deadline error.
			c.conn.SetWriteDeadline(time.Now())
		case <-watchDone:
		}
	}()

	err := wire.WriteFrame(c.conn, body)
	close(watchDone)
	<-watchExited
	c.conn.SetWriteDeadline(time.Time{})

	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("write interrupted: %w", ctx.Err())
	}
	return err
}

// Close tears down the stream and the read pump. It is idempotent.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
