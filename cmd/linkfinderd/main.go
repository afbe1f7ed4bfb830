// Command linkfinderd runs the linkfinder service: it takes a URL per request
// on a ZeroMQ endpoint and replies with the links found on that page.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"linkfinder/config"
	"linkfinder/crawler"
	"linkfinder/logger"
	"linkfinder/middleware"
	"linkfinder/registry"
	"linkfinder/server"
)

func main() {
	opt := config.New(os.Args[0])
	if err := opt.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if opt.ShowHelp {
		fmt.Print(opt.FlagUsages())
		return
	}

	log := logger.NewService("linkfinderd", opt.Debug)
	defer log.Sync()

	if err := run(opt, log); err != nil {
		log.Error("linkfinderd exited", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(opt *config.Options, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverOpts := []server.Option{
		server.WithLogger(log),
		server.WithWorkers(opt.Workers),
	}
	if len(opt.EtcdEndpoints) > 0 {
		reg, err := registry.NewEtcdRegistry(opt.EtcdEndpoints)
		if err != nil {
			return err
		}
		defer reg.Close()
		serverOpts = append(serverOpts, server.WithRegistry(reg, opt.ServiceName, opt.AdvertiseEndpoint))

		watchCtx, stopWatch := context.WithCancel(context.Background())
		defer stopWatch()
		go watchMembers(watchCtx, reg, opt.ServiceName, log)
	}

	svr := server.New(server.CrawlHandler(crawler.NewFetcher(opt.FetcherOptions())), serverOpts...)
	for _, mw := range buildMiddlewares(opt, log, prometheus.DefaultRegisterer) {
		svr.Use(mw)
	}

	if opt.MetricsAddr != "" {
		go serveMetrics(opt.MetricsAddr, log)
	}

	// Serve outlives the signal context so Shutdown can drain in-flight crawls
	errc := make(chan error, 1)
	go func() { errc <- svr.Serve(context.Background(), opt.Endpoint) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info("shutting down", zap.Duration("timeout", opt.ShutdownTimeout))
	}

	if err := svr.Shutdown(opt.ShutdownTimeout); err != nil {
		return err
	}
	return <-errc
}

// buildMiddlewares orders the chain outermost first: metrics and logging see the
// final outcome, the rate limit rejects before any work, retries sit closest to
// the crawl.
func buildMiddlewares(opt *config.Options, log *zap.Logger, reg prometheus.Registerer) []middleware.Middleware {
	mws := []middleware.Middleware{
		middleware.MetricsMiddleware(middleware.NewMetrics(reg)),
		middleware.LoggingMiddleware(log),
	}
	if opt.Rate > 0 {
		mws = append(mws, middleware.RateLimitMiddleware(opt.Rate, opt.Burst))
	}
	if opt.RequestTimeout > 0 {
		mws = append(mws, middleware.TimeOutMiddleware(opt.RequestTimeout))
	}
	if opt.Retries > 0 {
		mws = append(mws, middleware.RetryMiddleware(log, opt.Retries, opt.RetryDelay))
	}
	return mws
}

func serveMetrics(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server failed", zap.Error(err))
	}
}
