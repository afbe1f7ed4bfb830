// Package transport wraps the ZeroMQ sockets used by linkfinder.
//
// Both sides speak ZMTP through github.com/go-zeromq/zmq4:
//
//	linkclient ──REQ──┐
//	linkclient ──REQ──┼──→ ROUTER (linkfinderd) ──→ workers
//	linkclient ──REQ──┘
//
// The REQ side sends one single-frame message and waits for one reply. The ROUTER
// side sees every request prefixed with the routing envelope of its sender and must
// hand the same envelope back with the reply.
package transport

import (
	"bytes"
	"context"
	"net"
	"time"

	"github.com/go-zeromq/zmq4"
)

const (
	// DefaultEndpoint is the peer the link requester always talks to.
	DefaultEndpoint = "tcp://localhost:5555"
	// ListenEndpoint is where the linkfinder service binds by default.
	ListenEndpoint = "tcp://*:5555"

	dialRetry = 250 * time.Millisecond
)

// Socket is the subset of zmq4.Socket linkfinder relies on.
// Tests substitute their own implementation to observe the exchange.
type Socket interface {
	Dial(endpoint string) error
	Listen(endpoint string) error
	Send(msg zmq4.Msg) error
	Recv() (zmq4.Msg, error)
	Close() error
	Addr() net.Addr
}

// Factory creates a fresh socket bound to ctx.
type Factory func(ctx context.Context) Socket

// NewRequester returns a REQ socket. Dial on it keeps retrying until the peer
// accepts, matching ZeroMQ's asynchronous connect: an absent peer blocks the
// caller instead of failing it.
func NewRequester(ctx context.Context) Socket {
	return zmq4.NewReq(ctx,
		zmq4.WithDialerRetry(dialRetry),
		zmq4.WithDialerMaxRetries(-1),
	)
}

// NewRouter returns a ROUTER socket for the service front end.
func NewRouter(ctx context.Context) Socket {
	return zmq4.NewRouter(ctx)
}

// NewText builds a single-frame message holding s.
func NewText(s string) zmq4.Msg {
	return zmq4.NewMsgString(s)
}

// Text returns the message body as a string. Multi-frame messages are concatenated.
func Text(msg zmq4.Msg) string {
	return string(bytes.Join(msg.Frames, nil))
}

// Envelope splits a ROUTER message into its routing frames and its body frame.
// ok is false when the message carries no body.
func Envelope(msg zmq4.Msg) (route [][]byte, body []byte, ok bool) {
	if len(msg.Frames) < 2 {
		return nil, nil, false
	}
	n := len(msg.Frames) - 1
	return msg.Frames[:n], msg.Frames[n], true
}

// Reply builds the ROUTER reply for route carrying body.
func Reply(route [][]byte, body []byte) zmq4.Msg {
	frames := make([][]byte, 0, len(route)+1)
	frames = append(frames, route...)
	frames = append(frames, body)
	return zmq4.NewMsgFrom(frames...)
}

// ListenAddr resolves the concrete TCP endpoint a listening socket is bound to,
// which differs from the requested one when the port was 0.
func ListenAddr(s Socket) string {
	addr := s.Addr()
	if addr == nil {
		return ""
	}
	return "tcp://" + addr.String()
}
