// Package exchange performs exactly one request/response pair on a
// connected channel.
//
// After the request is written, two negative signals are watched
// concurrently with the response: peer disconnection and caller
// cancellation. A server that is alive but hung is indistinguishable from
// one that is slowly computing, so only disconnection ends the wait early.
package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetherlab/tether/transport"
	"github.com/tetherlab/tether/wire"
	"go.uber.org/zap"
)

// ErrRejected means the server could not be used for this exchange; the
// caller performs the work locally instead.
var ErrRejected = errors.New("server exchange rejected")

func rejected(msg string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	return fmt.Errorf("%w: %s: %v", ErrRejected, msg, err)
}

// Execute writes req and waits for the single response, racing it against
// peer disconnection and ctx. The conn is consumed: it is closed on every
// exit path, which also tears down the losing wait.
func Execute(ctx context.Context, log *zap.SugaredLogger, conn *transport.Conn, req *wire.Request) (*wire.Response, error) {
	defer conn.Close()
	log = log.Named("exchange")

	body, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, rejected("encoding request", err)
	}
	if err := conn.WriteFrame(ctx, body); err != nil {
		log.Debugf("request write failed: %s", err)
		return nil, rejected("writing request", err)
	}

	select {
	case frame, ok := <-conn.Frames():
		if !ok {
			// The stream ended before a full response frame arrived.
			log.Debug("stream closed before response")
			return nil, rejected("connection closed before response", nil)
		}
		resp, err := wire.DecodeResponse(frame)
		if err != nil {
			// A malformed response is no more usable than none.
			log.Debugf("response decode failed: %s", err)
			return nil, rejected("decoding response", err)
		}
		return resp, nil
	case <-conn.Disconnected():
		// The pump may have delivered a final frame in the same instant
		// the peer closed; a complete response still wins.
		select {
		case frame, ok := <-conn.Frames():
			if ok {
				resp, err := wire.DecodeResponse(frame)
				if err == nil {
					return resp, nil
				}
			}
		default:
		}
		log.Debug("server disconnected before responding")
		return nil, rejected("server disconnected before responding", nil)
	case <-ctx.Done():
		log.Debugf("exchange cancelled: %s", ctx.Err())
		return nil, rejected("cancelled", ctx.Err())
	}
}
