package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"nhooyr.io/websocket"
)

// WebSocketDialer connects to a channel served over HTTP at
// <BaseURL>/channel/<id>, converting the WebSocket into a net.Conn. Used
// when the worker runs somewhere a filesystem socket cannot reach, such as
// a container that only publishes a port.
type WebSocketDialer struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (d *WebSocketDialer) Dial(ctx context.Context, channelID string) (net.Conn, error) {
	u := fmt.Sprintf("%s/channel/%s", d.BaseURL, url.PathEscape(channelID))
	return pollDial(ctx, func(ctx context.Context) (net.Conn, error) {
		wsConn, _, err := websocket.Dial(ctx, u, &websocket.DialOptions{HTTPClient: d.HTTPClient})
		if err != nil {
			return nil, fmt.Errorf("dialing WebSocket conn: %w", err)
		}
		// The conn must outlive the dial context: the exchange owns its
		// lifetime and closes it explicitly.
		return websocket.NetConn(context.Background(), wsConn, websocket.MessageBinary), nil
	})
}
