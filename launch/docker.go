package launch

import (
	"context"
	"fmt"
	"strconv"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	tethernet "github.com/tetherlab/tether/internal/net"
	"go.uber.org/zap"
)

// DockerLauncher starts the worker as a container. The channel directory
// (sockets and lock files) is bind-mounted at the same path inside the
// container so host and worker derive identical endpoint names. Workers
// that serve a WebSocket channel instead publish ChannelPort on localhost.
//
// Standard environment variables configure the Docker client (DOCKER_HOST etc.).
type DockerLauncher struct {
	Log          *zap.SugaredLogger
	DockerClient *client.Client
	Image        string
	ChannelDir   string
	Env          []string

	// ChannelPort, when nonzero, is the container-side TCP port of the
	// worker's WebSocket channel. HostPort 0 picks an ephemeral port.
	ChannelPort int
	HostPort    int
}

// NewDockerLauncher builds a launcher talking to the local Docker daemon.
func NewDockerLauncher(log *zap.SugaredLogger, image, channelDir string) (*DockerLauncher, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		return nil, fmt.Errorf("building Docker client: %w", err)
	}
	return &DockerLauncher{
		Log:          log.Named("docker_launcher"),
		DockerClient: dockerClient,
		Image:        image,
		ChannelDir:   channelDir,
	}, nil
}

func (l *DockerLauncher) Launch(ctx context.Context, workingDir, channelID string) error {
	containerConfig := &container.Config{
		Image:      l.Image,
		WorkingDir: workingDir,
		Env: append([]string{
			"TETHER_CHANNEL=" + channelID,
			"TETHER_CHANNEL_DIR=" + l.ChannelDir,
		}, l.Env...),
	}
	hostConfig := &container.HostConfig{
		Binds: []string{
			l.ChannelDir + ":" + l.ChannelDir,
			workingDir + ":" + workingDir,
		},
	}

	if l.ChannelPort != 0 {
		hostPort := l.HostPort
		if hostPort == 0 {
			var err error
			hostPort, err = tethernet.GetEphemeralTCPPort()
			if err != nil {
				return fmt.Errorf("picking host port: %w", err)
			}
		}
		port := nat.Port(fmt.Sprintf("%d/tcp", l.ChannelPort))
		containerConfig.ExposedPorts = nat.PortSet{port: struct{}{}}
		hostConfig.PortBindings = nat.PortMap{
			port: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: strconv.Itoa(hostPort)}},
		}
	}

	name := "tether-worker-" + uuid.NewString()[:8]
	created, err := l.DockerClient.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, name)
	if err != nil {
		return fmt.Errorf("creating worker container: %w", err)
	}
	if err := l.DockerClient.ContainerStart(ctx, created.ID, types.ContainerStartOptions{}); err != nil {
		return fmt.Errorf("starting worker container: %w", err)
	}
	l.Log.Debugw("started worker container", "Name", name, "ID", created.ID, "ChannelID", channelID)
	return nil
}
