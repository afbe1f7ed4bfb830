// Package client implements the link requester: one link in, one reply out.
//
// The exchange is strictly linear and synchronous:
//
//	validate args → connect → send → block for reply → print → release
//
// There is no timeout and no retry. If the peer never answers, Run never returns.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"linkfinder/transport"
)

// Usage is printed when the requester is not given exactly one link.
const Usage = "Usage:\n\truby client.rb <link>"

// Delimiter brackets the reply in the output.
const Delimiter = "---------"

// ErrUsage is returned by Run when the argument count is wrong. Nothing was sent.
var ErrUsage = errors.New("client: expected exactly one link argument")

// Requester sends a single link to a linkfinder peer and prints the reply.
type Requester struct {
	endpoint  string
	out       io.Writer
	newSocket transport.Factory
}

// Option customizes a Requester.
type Option func(*Requester)

// WithEndpoint overrides the fixed peer address. Used by tests only.
func WithEndpoint(endpoint string) Option {
	return func(r *Requester) {
		r.endpoint = endpoint
	}
}

// WithSocketFactory replaces the ZeroMQ REQ socket constructor.
func WithSocketFactory(f transport.Factory) Option {
	return func(r *Requester) {
		r.newSocket = f
	}
}

// NewRequester creates a requester that writes its output to out.
func NewRequester(out io.Writer, opts ...Option) *Requester {
	r := &Requester{
		endpoint:  transport.DefaultEndpoint,
		out:       out,
		newSocket: transport.NewRequester,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs the exchange for args (the command line without the program name).
//
// The socket is created only after the argument check passes, so the usage path
// never touches the network and has nothing to release.
func (r *Requester) Run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(r.out, Usage)
		return ErrUsage
	}
	link := args[0]

	sck := r.newSocket(ctx)
	released := false
	defer func() {
		if !released {
			sck.Close()
		}
	}()

	// Connecting does not wait for the peer: an absent peer blocks the send,
	// not the connect, so both status lines are out before the program stalls.
	fmt.Fprintln(r.out, "connecting")
	dialed := make(chan error, 1)
	go func() {
		dialed <- sck.Dial(r.endpoint)
	}()

	fmt.Fprintf(r.out, "sending: %s\n", link)
	if err := <-dialed; err != nil {
		return fmt.Errorf("connect %s: %w", r.endpoint, err)
	}
	if err := sck.Send(transport.NewText(link)); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	msg, err := sck.Recv()
	if err != nil {
		return fmt.Errorf("receive reply: %w", err)
	}

	fmt.Fprintln(r.out, "Received reply:")
	fmt.Fprintln(r.out, Delimiter)
	fmt.Fprintln(r.out, transport.Text(msg))
	fmt.Fprintln(r.out, Delimiter)

	// The result of the release is informational only
	released = true
	fmt.Fprintln(r.out, sck.Close())
	return nil
}
