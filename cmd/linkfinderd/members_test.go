package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"linkfinder/registry"
)

type fakeRegistry struct {
	current     []registry.ServiceInstance
	discoverErr error
	updates     chan []registry.ServiceInstance
}

func (f *fakeRegistry) Register(string, registry.ServiceInstance, int64) error { return nil }
func (f *fakeRegistry) Deregister(string, string) error                        { return nil }

func (f *fakeRegistry) Discover(string) ([]registry.ServiceInstance, error) {
	return f.current, f.discoverErr
}

func (f *fakeRegistry) Watch(ctx context.Context, serviceName string) <-chan []registry.ServiceInstance {
	out := make(chan []registry.ServiceInstance)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case insts := <-f.updates:
				select {
				case out <- insts:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func TestWatchMembers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reg := &fakeRegistry{
		current: []registry.ServiceInstance{{Endpoint: "tcp://10.0.0.5:5555"}},
		updates: make(chan []registry.ServiceInstance),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		watchMembers(ctx, reg, "linkfinder", zap.New(core))
		close(done)
	}()

	reg.updates <- []registry.ServiceInstance{{Endpoint: "tcp://10.0.0.5:5555"}, {Endpoint: "tcp://10.0.0.6:5555"}}

	require.Eventually(t, func() bool {
		return logs.FilterMessage("service members changed").Len() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchMembers did not return after cancel")
	}

	initial := logs.FilterMessage("service members").All()
	require.Len(t, initial, 1)
	assert.Equal(t, []interface{}{"tcp://10.0.0.5:5555"}, initial[0].ContextMap()["endpoints"])

	changed := logs.FilterMessage("service members changed").All()
	assert.Equal(t, []interface{}{"tcp://10.0.0.5:5555", "tcp://10.0.0.6:5555"}, changed[0].ContextMap()["endpoints"])
}

func TestWatchMembersDiscoverError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reg := &fakeRegistry{discoverErr: errors.New("etcd unavailable"), updates: make(chan []registry.ServiceInstance)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	watchMembers(ctx, reg, "linkfinder", zap.New(core))

	assert.Equal(t, 1, logs.FilterMessage("discover service members failed").Len())
}
