// Package launch coordinates the launch-or-reuse decision for a channel's
// worker and hands back a connected channel.
package launch

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/tetherlab/tether/internal/files"
	"go.uber.org/zap"
)

// Launcher attempts to start a worker process bound to a channel. It
// returns once the process is started; it never waits for the worker to
// become ready.
type Launcher interface {
	Launch(ctx context.Context, workingDir, channelID string) error
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context, workingDir, channelID string) error

func (f LauncherFunc) Launch(ctx context.Context, workingDir, channelID string) error {
	return f(ctx, workingDir, channelID)
}

// ExecLauncher starts the worker as a detached child process.
// By default the worker binary is found by searching up from the working
// directory for a file named "tether-worker".
type ExecLauncher struct {
	Log   *zap.SugaredLogger
	Bin   string
	Args  []string
	Env   []string
	Debug bool
}

func (l *ExecLauncher) Launch(ctx context.Context, workingDir, channelID string) error {
	bin := l.Bin
	if bin == "" {
		var err error
		bin, err = files.FindWorkerBin(workingDir)
		if err != nil {
			return fmt.Errorf("finding worker bin: %w", err)
		}
	}

	args := append([]string{"--channel", channelID}, l.Args...)
	if l.Debug {
		args = append(args, "--debug")
	}

	cmd := exec.Command(bin, args...)
	cmd.Dir = workingDir
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting worker: %w", err)
	}
	l.Log.Debugw("started worker", "Bin", bin, "PID", cmd.Process.Pid, "ChannelID", channelID)

	// The worker owns its own lifetime from here on.
	return cmd.Process.Release()
}
