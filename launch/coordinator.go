package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tetherlab/tether/channel"
	"github.com/tetherlab/tether/sysmutex"
	"github.com/tetherlab/tether/transport"
	"go.uber.org/zap"
)

// ErrRejected is the uniform "could not use the server this time" outcome.
// Callers fall back to performing the work locally; nothing below the
// coordinator propagates a fault past it.
var ErrRejected = errors.New("server connection rejected")

// LaunchOutcome records the launch-or-reuse decision made for one Obtain call.
type LaunchOutcome int

const (
	LaunchFailed LaunchOutcome = iota
	AlreadyRunning
	LaunchedNow
)

func (o LaunchOutcome) String() string {
	switch o {
	case AlreadyRunning:
		return "already-running"
	case LaunchedNow:
		return "launched-now"
	default:
		return "launch-failed"
	}
}

type ObtainRequest struct {
	ChannelID  string
	WorkingDir string
	TempDir    string

	// NewProcessTimeout bounds the client mutex wait and, after a fresh
	// launch, the connect; a new worker needs startup time.
	NewProcessTimeout time.Duration
	// ExistingProcessTimeout bounds the connect to a worker that is
	// already running and expected to be responsive.
	ExistingProcessTimeout time.Duration
}

type ObtainResult struct {
	Conn    *transport.Conn
	Outcome LaunchOutcome
}

// Coordinator serializes the launch-or-reuse decision across concurrently
// starting client processes and produces a connected channel.
type Coordinator struct {
	log      *zap.SugaredLogger
	locker   sysmutex.Locker
	launcher Launcher
	dialer   transport.Dialer
}

func NewCoordinator(log *zap.SugaredLogger, locker sysmutex.Locker, launcher Launcher, dialer transport.Dialer) *Coordinator {
	return &Coordinator{
		log:      log.Named("coordinator"),
		locker:   locker,
		launcher: launcher,
		dialer:   dialer,
	}
}

func rejected(msg string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	return fmt.Errorf("%w: %s: %v", ErrRejected, msg, err)
}

// Obtain returns a connected channel, launching a worker first if none is
// running. Every failure mode resolves to an error wrapping ErrRejected;
// the only plain error is an empty channel ID, which is a caller bug.
func (c *Coordinator) Obtain(ctx context.Context, req ObtainRequest) (*ObtainResult, error) {
	names, err := channel.Names(req.ChannelID)
	if err != nil {
		return nil, err
	}
	if req.TempDir == "" {
		return nil, rejected("no temp directory", nil)
	}
	if info, err := os.Stat(req.TempDir); err != nil || !info.IsDir() {
		return nil, rejected(fmt.Sprintf("temp directory %q unusable", req.TempDir), err)
	}

	// The client mutex serializes the launch decision: without it, N
	// simultaneous clients could each observe "no server" and each spawn
	// one.
	handle, err := c.locker.Acquire(ctx, names.ClientMutex, req.NewProcessTimeout)
	if err != nil {
		c.log.Debugf("client mutex not acquired: %s", err)
		return nil, rejected("acquiring client mutex", err)
	}
	var releaseOnce sync.Once
	release := func() {
		releaseOnce.Do(func() {
			if err := handle.Release(); err != nil {
				c.log.Debugf("releasing client mutex: %s", err)
			}
		})
	}
	defer release()

	wasRunning := c.locker.Probe(names.ServerMutex)
	var outcome LaunchOutcome
	var connectTimeout time.Duration
	if wasRunning {
		outcome = AlreadyRunning
		connectTimeout = req.ExistingProcessTimeout
	} else {
		if err := c.launcher.Launch(ctx, req.WorkingDir, req.ChannelID); err != nil {
			// No worker was running and none was started: there is
			// nothing to connect to.
			c.log.Debugf("worker launch failed: %s", err)
			return nil, rejected("launching worker", err)
		}
		outcome = LaunchedNow
		connectTimeout = req.NewProcessTimeout
	}
	c.log.Debugw("launch decision made", "ChannelID", req.ChannelID, "Outcome", outcome.String())

	// Start the connect before releasing the mutex, then release: the
	// exclusion protects the launch decision, not the handshake, so other
	// clients can proceed to their own (now server-is-running) decision
	// while this connect completes.
	type connResult struct {
		conn *transport.Conn
		err  error
	}
	connCh := make(chan connResult, 1)
	go func() {
		conn, err := transport.Connect(ctx, c.log, c.dialer, req.ChannelID, connectTimeout)
		connCh <- connResult{conn: conn, err: err}
	}()
	release()

	res := <-connCh
	if res.err != nil {
		return nil, rejected("connecting to channel", res.err)
	}
	return &ObtainResult{Conn: res.conn, Outcome: outcome}, nil
}
