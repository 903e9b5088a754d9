//go:build windows

package transport

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"
	"github.com/tetherlab/tether/channel"
)

// SocketDialer connects to the channel's named pipe, polling until the
// worker has created it or the context expires. Dir is unused on Windows;
// pipe names live in their own namespace.
type SocketDialer struct {
	Dir string
}

func (d *SocketDialer) Dial(ctx context.Context, channelID string) (net.Conn, error) {
	name := channel.PipeName(channelID)
	return pollDial(ctx, func(ctx context.Context) (net.Conn, error) {
		return winio.DialPipeContext(ctx, name)
	})
}
