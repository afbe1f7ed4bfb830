package registry

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a live etcd; point LINKFINDER_TEST_ETCD at it, e.g. "localhost:2379".
func newTestRegistry(t *testing.T) *EtcdRegistry {
	endpoints := os.Getenv("LINKFINDER_TEST_ETCD")
	if endpoints == "" {
		t.Skip("LINKFINDER_TEST_ETCD not set")
	}
	reg, err := NewEtcdRegistry(strings.Split(endpoints, ","))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestServiceKey(t *testing.T) {
	assert.Equal(t, "/linkfinder/crawl/tcp://10.0.0.5:5555", serviceKey("crawl", "tcp://10.0.0.5:5555"))
	assert.True(t, strings.HasPrefix(serviceKey("crawl", "x"), servicePrefix("crawl")))
}

func TestRegisterAndDiscover(t *testing.T) {
	reg := newTestRegistry(t)

	inst1 := ServiceInstance{Endpoint: "tcp://127.0.0.1:15555", Workers: 4, Version: "test"}
	inst2 := ServiceInstance{Endpoint: "tcp://127.0.0.1:15556", Workers: 2, Version: "test"}

	require.NoError(t, reg.Register("linkfinder-test", inst1, 10))
	require.NoError(t, reg.Register("linkfinder-test", inst2, 10))
	defer reg.Deregister("linkfinder-test", inst2.Endpoint)

	instances, err := reg.Discover("linkfinder-test")
	require.NoError(t, err)
	assert.Len(t, instances, 2)

	require.NoError(t, reg.Deregister("linkfinder-test", inst1.Endpoint))
	time.Sleep(100 * time.Millisecond)

	instances, err = reg.Discover("linkfinder-test")
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, inst2, instances[0])
}

func TestWatch(t *testing.T) {
	reg := newTestRegistry(t)

	ctx, cancel := context.WithCancel(context.Background())
	updates := reg.Watch(ctx, "linkfinder-watch")
	time.Sleep(100 * time.Millisecond) // let the watch start

	inst := ServiceInstance{Endpoint: "tcp://127.0.0.1:15557", Workers: 1}
	require.NoError(t, reg.Register("linkfinder-watch", inst, 10))
	defer reg.Deregister("linkfinder-watch", inst.Endpoint)

	select {
	case instances := <-updates:
		assert.Contains(t, instances, inst)
	case <-time.After(5 * time.Second):
		t.Fatal("no update after register")
	}

	cancel()
	for range updates {
	}
}
