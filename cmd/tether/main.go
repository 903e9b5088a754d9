package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/tetherlab/tether"
	"github.com/tetherlab/tether/internal/tempdir"
	"github.com/tetherlab/tether/launch"
	"github.com/tetherlab/tether/sysmutex"
	"github.com/tetherlab/tether/transport"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// exitFallback tells the wrapping tool to perform the work locally: the
// worker could not be used this time, which is not a failure of the work
// itself.
const exitFallback = 4

func newApp() *cli.App {
	return &cli.App{
		Name:      "tether",
		Usage:     "offload a command to a resident background worker over a named channel",
		ArgsUsage: "[worker arguments]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "channel",
				Usage:    "The channel identifier shared with the worker.",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "working-dir",
				Usage: "The working directory forwarded to the worker. Defaults to the current directory.",
			},
			&cli.StringFlag{
				Name:  "temp-dir",
				Usage: "The directory holding channel sockets and lock files. Defaults to $TETHER_TMPDIR, then the system temp dir.",
			},
			&cli.DurationFlag{
				Name:  "new-process-timeout",
				Usage: "Budget for the launch decision and for connecting to a freshly launched worker.",
				Value: tether.DefaultNewProcessTimeout,
			},
			&cli.DurationFlag{
				Name:  "existing-process-timeout",
				Usage: "Budget for connecting to a worker that is already running.",
				Value: tether.DefaultExistingProcessTimeout,
			},
			&cli.IntFlag{
				Name:  "keep-alive",
				Usage: "Advisory hint, in seconds, for how long the worker should stay alive after this request.",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Verbose logging, also forwarded to a launched worker.",
			},
			&cli.StringFlag{
				Name:  "worker-bin",
				Usage: "Path to the worker binary. Defaults to searching up from the working directory for \"tether-worker\".",
			},
			&cli.StringFlag{
				Name:  "launcher",
				Usage: "How to start a worker when none is running. One of [exec,docker].",
				Value: "exec",
			},
			&cli.StringFlag{
				Name:  "docker-image",
				Usage: "Worker image for the docker launcher.",
			},
			&cli.StringFlag{
				Name:  "ws-url",
				Usage: "Dial the channel as a WebSocket at this base URL instead of a filesystem socket.",
			},
		},
		Action: run,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// doRequest maps the parsed flags onto the request handed to the client.
// workingDir and tempDir are resolved by the caller; everything else comes
// straight from the flags.
func doRequest(c *cli.Context, workingDir, tempDir string) tether.DoRequest {
	return tether.DoRequest{
		ChannelID:              c.String("channel"),
		WorkingDir:             workingDir,
		TempDir:                tempDir,
		Args:                   c.Args().Slice(),
		KeepAliveSeconds:       c.Int("keep-alive"),
		Debug:                  c.Bool("debug"),
		NewProcessTimeout:      c.Duration("new-process-timeout"),
		ExistingProcessTimeout: c.Duration("existing-process-timeout"),
	}
}

func run(c *cli.Context) error {
	debug := c.Bool("debug")

	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()
	slog := logger.Sugar()

	workingDir := c.String("working-dir")
	if workingDir == "" {
		workingDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working dir: %w", err)
		}
	}

	tempDir, err := tempdir.Resolve(c.String("temp-dir"))
	if err != nil {
		// Unusable temp dir means "work locally", not a hard failure.
		slog.Debugf("temp dir unusable: %s", err)
		return cli.Exit("", exitFallback)
	}

	var launcher launch.Launcher
	switch c.String("launcher") {
	case "exec":
		launcher = &launch.ExecLauncher{
			Log:   slog,
			Bin:   c.String("worker-bin"),
			Debug: debug,
		}
	case "docker":
		launcher, err = launch.NewDockerLauncher(slog, c.String("docker-image"), tempDir)
		if err != nil {
			return fmt.Errorf("building docker launcher: %w", err)
		}
	default:
		return fmt.Errorf("unknown launcher %q", c.String("launcher"))
	}

	var dialer transport.Dialer
	if wsURL := c.String("ws-url"); wsURL != "" {
		dialer = &transport.WebSocketDialer{BaseURL: wsURL}
	} else {
		dialer = &transport.SocketDialer{Dir: tempDir}
	}

	client := tether.New(slog, sysmutex.System(tempDir), launcher, dialer)
	resp, err := client.Do(context.Background(), doRequest(c, workingDir, tempDir))
	if err != nil {
		if tether.IsRejected(err) {
			slog.Debugf("worker rejected, falling back to local execution: %s", err)
			return cli.Exit("", exitFallback)
		}
		return err
	}

	fmt.Fprint(os.Stdout, resp.Stdout)
	fmt.Fprint(os.Stderr, resp.Stderr)
	logger.Sync()
	if resp.ExitCode != 0 {
		return cli.Exit("", resp.ExitCode)
	}
	return nil
}
