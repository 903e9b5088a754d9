package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// ErrUnavailable means the channel could not be connected within the
// caller's budget. Timeout and cancellation are expected outcomes here, not
// faults.
var ErrUnavailable = errors.New("channel unavailable")

// Dialer opens the raw transport endpoint for a channel.
type Dialer interface {
	Dial(ctx context.Context, channelID string) (net.Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, channelID string) (net.Conn, error)

func (f DialerFunc) Dial(ctx context.Context, channelID string) (net.Conn, error) {
	return f(ctx, channelID)
}

// dialPollInterval is how often pollDial re-attempts while the endpoint
// does not exist yet.
const dialPollInterval = 100 * time.Millisecond

// pollDial retries attempt until it succeeds or ctx expires. A freshly
// launched worker's endpoint may not exist for a while, so not-found is a
// wait condition rather than a failure.
func pollDial(ctx context.Context, attempt func(context.Context) (net.Conn, error)) (net.Conn, error) {
	ticker := time.NewTicker(dialPollInterval)
	defer ticker.Stop()
	for {
		nc, err := attempt(ctx)
		if err == nil {
			return nc, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ctx.Err(), err)
		case <-ticker.C:
		}
	}
}

// Connect opens a Conn on the named channel, bounded by timeout and by ctx.
// Expiry of either yields ErrUnavailable.
func Connect(ctx context.Context, log *zap.SugaredLogger, d Dialer, channelID string, timeout time.Duration) (*Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Debugw("connecting to channel", "ChannelID", channelID, "Timeout", timeout)
	nc, err := d.Dial(ctx, channelID)
	if err != nil {
		log.Debugf("connect failed: %s", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return NewConn(log, nc), nil
}
