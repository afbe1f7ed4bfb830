// Package server implements the linkfinder service: a ROUTER front end feeding a
// bounded pool of crawl workers, with graceful shutdown.
//
// Request processing pipeline:
//
//	ROUTER.Recv (single goroutine) → acquire worker slot
//	  → go handleRequest: Middleware Chain → CrawlHandler → codec.Encode → ROUTER.Send (under writeMu)
package server

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"linkfinder/codec"
	"linkfinder/message"
	"linkfinder/middleware"
	"linkfinder/registry"
	"linkfinder/transport"
)

// DefaultWorkers is how many crawls run at the same time.
const DefaultWorkers = 4

// DefaultServiceName is the name instances are advertised under.
const DefaultServiceName = "linkfinder"

// Server receives links, crawls them and replies on the same socket.
type Server struct {
	log         *zap.Logger
	newSocket   transport.Factory
	codec       codec.Codec
	workers     chan struct{}           // One token per busy worker
	wg          sync.WaitGroup          // In-flight requests, waited on by Shutdown
	shutdown    atomic.Bool             // Set under mu; stops admission and lets Serve return nil
	middlewares []middleware.Middleware // Applied in order, outermost first
	base        middleware.HandlerFunc  // Innermost handler, usually CrawlHandler
	handler     middleware.HandlerFunc  // middlewares wrapped around base, built by Serve

	mu        sync.Mutex
	sck       transport.Socket
	ready     chan struct{}
	readyOnce sync.Once
	endpoint string

	writeMu sync.Mutex // ROUTER sends from several workers must not interleave

	registry      registry.Registry
	serviceName   string
	advertiseAddr string // Endpoint clients should dial, "tcp://*:5555" is not routable
}

// Option customizes a Server.
type Option func(*Server)

func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithWorkers bounds the number of concurrent crawls. n < 1 means DefaultWorkers.
func WithWorkers(n int) Option {
	return func(s *Server) {
		if n < 1 {
			n = DefaultWorkers
		}
		s.workers = make(chan struct{}, n)
	}
}

func WithSocketFactory(f transport.Factory) Option {
	return func(s *Server) {
		s.newSocket = f
	}
}

// WithRegistry advertises advertiseAddr under serviceName while serving.
func WithRegistry(reg registry.Registry, serviceName, advertiseAddr string) Option {
	return func(s *Server) {
		s.registry = reg
		s.serviceName = serviceName
		s.advertiseAddr = advertiseAddr
	}
}

// New creates a server that answers every request with handler.
func New(handler middleware.HandlerFunc, opts ...Option) *Server {
	s := &Server{
		log:         zap.NewNop(),
		newSocket:   transport.NewRouter,
		codec:       codec.Default,
		workers:     make(chan struct{}, DefaultWorkers),
		base:        handler,
		ready:       make(chan struct{}),
		serviceName: DefaultServiceName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Use registers a middleware. Middlewares must be added before Serve.
func (s *Server) Use(mw middleware.Middleware) {
	s.middlewares = append(s.middlewares, mw)
}

// Ready is closed once the socket is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Endpoint returns the concrete endpoint the server is bound to, valid after Ready.
func (s *Server) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// Serve binds endpoint and handles requests until Shutdown is called or ctx ends.
func (s *Server) Serve(ctx context.Context, endpoint string) error {
	s.handler = middleware.Chain(s.middlewares...)(s.base)

	sck := s.newSocket(ctx)
	if err := sck.Listen(endpoint); err != nil {
		sck.Close()
		return fmt.Errorf("listen %s: %w", endpoint, err)
	}

	s.mu.Lock()
	if s.shutdown.Load() {
		// Shutdown ran before the bind; nobody else will close this socket
		s.mu.Unlock()
		sck.Close()
		s.readyOnce.Do(func() { close(s.ready) })
		return nil
	}
	s.sck = sck
	s.endpoint = transport.ListenAddr(sck)
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })

	s.log.Info("linkfinder started",
		zap.String("endpoint", endpoint),
		zap.Int("workers", cap(s.workers)),
		zap.String("codec", s.codec.Name()))

	if s.registry != nil {
		err := s.registry.Register(s.serviceName, registry.ServiceInstance{
			Endpoint: s.advertiseAddr,
			Workers:  cap(s.workers),
		}, 10) // TTL seconds, renewed by keepalive
		if err != nil {
			s.log.Error("register service failed", zap.String("service", s.serviceName), zap.Error(err))
		}
	}

	for {
		msg, err := sck.Recv()
		if err != nil {
			// Closing the socket during Shutdown surfaces here as an error
			if s.shutdown.Load() || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive request: %w", err)
		}

		route, body, ok := transport.Envelope(msg)
		if !ok {
			s.log.Warn("dropping message without routing envelope", zap.Int("frames", len(msg.Frames)))
			continue
		}

		// Blocks while every worker is busy; requests queue in the socket meanwhile
		s.workers <- struct{}{}

		s.mu.Lock()
		if s.shutdown.Load() {
			s.mu.Unlock()
			<-s.workers
			s.replyShuttingDown(sck, route)
			continue
		}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.handleRequest(ctx, sck, route, string(body))
	}
}

func (s *Server) handleRequest(ctx context.Context, sck transport.Socket, route [][]byte, link string) {
	defer s.wg.Done()
	defer func() { <-s.workers }()

	resp := s.handler(ctx, &message.Request{Link: link})

	reply, err := s.codec.Encode(resp)
	if err != nil {
		s.log.Error("encode reply failed", zap.String("link", link), zap.Error(err))
		reply = []byte(message.ErrorReply)
	}

	if err := s.send(sck, route, reply); err != nil {
		s.log.Error("send reply failed", zap.String("link", link), zap.Error(err))
	}
}

// replyShuttingDown answers a request that arrived after Shutdown so its REQ peer is not left waiting.
func (s *Server) replyShuttingDown(sck transport.Socket, route [][]byte) {
	if err := s.send(sck, route, []byte(message.ErrorReply)); err != nil {
		s.log.Error("send shutdown reply failed", zap.Error(err))
	}
}

func (s *Server) send(sck transport.Socket, route [][]byte, body []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return sck.Send(transport.Reply(route, body))
}

// Shutdown stops the server:
//  1. Deregister from the registry so clients stop being pointed here
//  2. Set the shutdown flag; later requests are answered with ERROR
//  3. Wait up to timeout for in-flight requests, then close the socket
func (s *Server) Shutdown(timeout time.Duration) error {
	if s.registry != nil {
		if err := s.registry.Deregister(s.serviceName, s.advertiseAddr); err != nil {
			s.log.Warn("deregister service failed", zap.Error(err))
		}
	}

	// No request is admitted once the flag is set under mu
	s.mu.Lock()
	s.shutdown.Store(true)
	s.mu.Unlock()

	// Let in-flight replies go out before the socket goes away
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-time.After(timeout):
		err = fmt.Errorf("timeout waiting for ongoing requests to finish")
	}

	s.mu.Lock()
	sck := s.sck
	s.mu.Unlock()
	if sck != nil {
		if cerr := sck.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
