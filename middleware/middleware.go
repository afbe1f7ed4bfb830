// Package middleware wraps the crawl handler of the linkfinder service.
//
// Chain(A, B, C)(handler) → A(B(C(handler))), so A sees the request first and the
// response last.
package middleware

import (
	"context"

	"linkfinder/message"
)

type HandlerFunc func(ctx context.Context, req *message.Request) *message.Response

type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares into one middleware.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
