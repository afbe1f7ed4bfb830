package middleware

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"linkfinder/message"
)

// RetryMiddleware re-runs crawls that failed with a transient network error,
// doubling the delay after every attempt.
func RetryMiddleware(log *zap.Logger, maxRetries int, baseDelay time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			resp := next(ctx, req)
			for i := 0; i < maxRetries; i++ {
				if resp.Error == "" || !retryable(resp) {
					return resp
				}
				log.Debug("retrying crawl", zap.Int("attempt", i+1), zap.String("link", req.Link), zap.String("error", resp.Error))
				select {
				case <-time.After(baseDelay * time.Duration(1<<i)):
				case <-ctx.Done():
					return resp
				}
				resp = next(ctx, req)
			}
			return resp
		}
	}
}

// retryable reports whether resp failed with a timeout or a refused connection.
// Responses built without an error value fall back to matching the message.
func retryable(resp *message.Response) bool {
	if err := resp.Err; err != nil {
		var netErr net.Error
		switch {
		case errors.Is(err, context.DeadlineExceeded),
			errors.Is(err, syscall.ECONNREFUSED),
			errors.As(err, &netErr) && netErr.Timeout():
			return true
		}
	}
	msg := strings.ToLower(resp.Error)
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "connection refused")
}
