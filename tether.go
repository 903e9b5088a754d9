// Package tether is the client half of a persistent-worker IPC protocol: a
// short-lived invocation hands its work to a long-lived background worker
// over a named duplex channel, launching the worker first if none is
// running. When the worker cannot be used, the outcome is a rejection and
// the caller performs the work locally; it is never a hard failure.
package tether

import (
	"context"
	"errors"
	"time"

	"github.com/tetherlab/tether/exchange"
	"github.com/tetherlab/tether/launch"
	"github.com/tetherlab/tether/sysmutex"
	"github.com/tetherlab/tether/transport"
	"github.com/tetherlab/tether/wire"
	"go.uber.org/zap"
)

const (
	// DefaultNewProcessTimeout bounds the mutex wait and the connect to a
	// freshly launched worker, which needs startup time.
	DefaultNewProcessTimeout = 20 * time.Second
	// DefaultExistingProcessTimeout bounds the connect to a worker that
	// is already running and expected to be responsive.
	DefaultExistingProcessTimeout = 2 * time.Second
)

// IsRejected reports whether err is a rejection: the uniform "could not use
// the worker this time" outcome from either the launch or the exchange
// phase.
func IsRejected(err error) bool {
	return errors.Is(err, launch.ErrRejected) || errors.Is(err, exchange.ErrRejected)
}

// Client runs one obtain-connection + request/response exchange.
type Client struct {
	log         *zap.SugaredLogger
	coordinator *launch.Coordinator
}

func New(log *zap.SugaredLogger, locker sysmutex.Locker, launcher launch.Launcher, dialer transport.Dialer) *Client {
	return &Client{
		log:         log.Named("tether"),
		coordinator: launch.NewCoordinator(log, locker, launcher, dialer),
	}
}

type DoRequest struct {
	ChannelID  string
	WorkingDir string
	TempDir    string
	Args       []string

	// KeepAliveSeconds is passed through to the worker unchanged.
	KeepAliveSeconds int
	Debug            bool

	NewProcessTimeout      time.Duration
	ExistingProcessTimeout time.Duration
}

// Do obtains a channel connection and performs exactly one exchange on it.
// The connection never outlives the call.
func (c *Client) Do(ctx context.Context, req DoRequest) (*wire.Response, error) {
	newTimeout := req.NewProcessTimeout
	if newTimeout == 0 {
		newTimeout = DefaultNewProcessTimeout
	}
	existingTimeout := req.ExistingProcessTimeout
	if existingTimeout == 0 {
		existingTimeout = DefaultExistingProcessTimeout
	}

	res, err := c.coordinator.Obtain(ctx, launch.ObtainRequest{
		ChannelID:              req.ChannelID,
		WorkingDir:             req.WorkingDir,
		TempDir:                req.TempDir,
		NewProcessTimeout:      newTimeout,
		ExistingProcessTimeout: existingTimeout,
	})
	if err != nil {
		return nil, err
	}
	c.log.Debugw("channel connected", "ChannelID", req.ChannelID, "Outcome", res.Outcome.String())

	wireReq := wire.NewRequest(req.WorkingDir, req.TempDir, req.Args)
	wireReq.KeepAliveSeconds = req.KeepAliveSeconds
	wireReq.Debug = req.Debug

	return exchange.Execute(ctx, c.log, res.Conn, wireReq)
}
