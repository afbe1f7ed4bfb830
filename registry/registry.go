package registry

import "context"

// ServiceInstance describes one running linkfinder service.
type ServiceInstance struct {
	Endpoint string // ZeroMQ endpoint clients connect to, e.g. "tcp://10.0.0.5:5555"
	Workers  int    // Number of crawls the instance runs concurrently
	Version  string
}

type Registry interface {
	Register(serviceName string, instance ServiceInstance, ttl int64) error
	Deregister(serviceName string, endpoint string) error
	Discover(serviceName string) ([]ServiceInstance, error)
	// Watch emits the instance list on every change until ctx ends, then closes the channel.
	Watch(ctx context.Context, serviceName string) <-chan []ServiceInstance
}
