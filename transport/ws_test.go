package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetherlab/tether/wire"
	"nhooyr.io/websocket"
)

// fakeWorkerServer accepts one WebSocket channel connection per request and
// hands the resulting byte stream to handle.
func fakeWorkerServer(t *testing.T, handle func(channelID string, recv func() ([]byte, error), send func([]byte) error)) *httptest.Server {
	t.Helper()
	router := httprouter.New()
	router.GET("/channel/:id", func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		nc := websocket.NetConn(r.Context(), wsConn, websocket.MessageBinary)
		defer nc.Close()
		handle(params.ByName("id"),
			func() ([]byte, error) { return wire.ReadFrame(nc) },
			func(b []byte) error { return wire.WriteFrame(nc, b) })
	})
	s := httptest.NewServer(router)
	t.Cleanup(s.Close)
	return s
}

func TestWebSocketDialerRoundTrip(t *testing.T) {
	gotChannel := make(chan string, 1)
	s := fakeWorkerServer(t, func(channelID string, recv func() ([]byte, error), send func([]byte) error) {
		gotChannel <- channelID
		body, err := recv()
		if err != nil {
			return
		}
		send(append([]byte("echo:"), body...))
	})

	d := &WebSocketDialer{BaseURL: s.URL, HTTPClient: s.Client()}
	conn, err := Connect(context.Background(), log, d, "demo", 5*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.WriteFrame(ctx, []byte("hello")))

	select {
	case body := <-conn.Frames():
		assert.Equal(t, "echo:hello", string(body))
		assert.Equal(t, "demo", <-gotChannel)
	case <-time.After(2 * time.Second):
		t.Fatal("no response frame")
	}
}

func TestWebSocketDialerUnreachable(t *testing.T) {
	d := &WebSocketDialer{BaseURL: "http://127.0.0.1:1"}
	_, err := Connect(context.Background(), log, d, "demo", 300*time.Millisecond)
	require.ErrorIs(t, err, ErrUnavailable)
}
