//go:build !windows

package transport

import (
	"context"
	"net"

	"github.com/tetherlab/tether/channel"
)

// SocketDialer connects to the channel's Unix socket under Dir, polling
// until the worker has created it or the context expires.
type SocketDialer struct {
	Dir string
}

func (d *SocketDialer) Dial(ctx context.Context, channelID string) (net.Conn, error) {
	path := channel.SocketPath(d.Dir, channelID)
	var nd net.Dialer
	return pollDial(ctx, func(ctx context.Context) (net.Conn, error) {
		return nd.DialContext(ctx, "unix", path)
	})
}
