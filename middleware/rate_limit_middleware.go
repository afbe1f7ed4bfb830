package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"linkfinder/message"
)

// RateLimitMiddleware rejects crawls beyond r per second using a token bucket.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			if !limiter.Allow() {
				return &message.Response{Error: "rate limit exceeded"}
			}
			return next(ctx, req)
		}
	}
}
