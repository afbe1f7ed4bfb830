package server

import (
	"context"
	"errors"

	"linkfinder/message"
	"linkfinder/middleware"
)

// ErrEmptyLink is reported for a request frame with no bytes in it.
var ErrEmptyLink = errors.New("empty link")

// Crawler lists the links found at a URL. *crawler.Fetcher implements it.
type Crawler interface {
	Crawl(ctx context.Context, rawURL string) ([]string, error)
}

// CrawlHandler is the innermost handler: it crawls req.Link with c.
func CrawlHandler(c Crawler) middleware.HandlerFunc {
	return func(ctx context.Context, req *message.Request) *message.Response {
		if req.Link == "" {
			return message.Failed(ErrEmptyLink)
		}
		links, err := c.Crawl(ctx, req.Link)
		if err != nil {
			return message.Failed(err)
		}
		return &message.Response{Links: links}
	}
}
