package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"linkfinder/logger"
	"linkfinder/message"
)

func LoggingMiddleware(log *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			start := time.Now()
			resp := next(ctx, req)
			if resp.Error != "" {
				log.Warn("crawl failed", zap.String("link", req.Link), logger.Since(start), zap.String("error", resp.Error))
				return resp
			}
			log.Info("crawl finished", zap.String("link", req.Link), logger.Since(start), zap.Int("links", len(resp.Links)))
			return resp
		}
	}
}
