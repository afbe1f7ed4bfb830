package main

import (
	"context"

	"go.uber.org/zap"

	"linkfinder/registry"
)

// watchMembers logs the instances advertised under name, first as found at
// startup and then on every change, until ctx ends.
func watchMembers(ctx context.Context, reg registry.Registry, name string, log *zap.Logger) {
	updates := reg.Watch(ctx, name)

	instances, err := reg.Discover(name)
	if err != nil {
		log.Warn("discover service members failed", zap.String("service", name), zap.Error(err))
	} else {
		log.Info("service members", zap.String("service", name), zap.Strings("endpoints", endpoints(instances)))
	}

	for instances := range updates {
		log.Info("service members changed", zap.String("service", name), zap.Strings("endpoints", endpoints(instances)))
	}
}

func endpoints(instances []registry.ServiceInstance) []string {
	eps := make([]string, 0, len(instances))
	for _, inst := range instances {
		eps = append(eps, inst.Endpoint)
	}
	return eps
}
