// Command linkclient sends one link to the linkfinder service on
// tcp://localhost:5555 and prints the reply.
//
//	linkclient <link>
package main

import (
	"context"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	"linkfinder/client"
	"linkfinder/logger"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run performs one request and returns the process exit status.
func run(ctx context.Context, args []string, out, errOut io.Writer, opts ...client.Option) int {
	err := client.NewRequester(out, opts...).Run(ctx, args)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, client.ErrUsage):
		// Usage has already been printed; a wrong argument count is not a failure
		return 0
	default:
		log := logger.NewWithWriter(errOut, "linkclient", false)
		log.Error("request failed", zap.Error(err))
		log.Sync()
		return 1
	}
}
