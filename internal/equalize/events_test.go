package equalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leqnet/go-leq/internal/topology"
	"github.com/leqnet/go-leq/pkg/types"
)

// TestEngine_PublishesChanges 测试路径变化事件
func TestEngine_PublishesChanges(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	sub, err := bus.Subscribe()
	require.NoError(t, err)

	e, err := NewEngine(topology.Sample(), nil, WithEvents(bus))
	require.NoError(t, err)
	require.NoError(t, e.RegisterService(4, 0, 0.1, 1))

	_, err = e.AddClients(4, 0, []types.NodeID{1, 5})
	require.NoError(t, err)

	ev := <-sub.Out()
	assert.Equal(t, types.NewServiceKey(4, 0), ev.Service)
	assert.Equal(t, []types.NodeID{1, 5}, ev.Clients())
	assert.Equal(t, types.Path{5, 2, 6, 4}, ev.Paths[5])
	assert.Equal(t, StatusConverged, ev.Status)

	// 没有变化时不发布
	_, err = e.AddClients(4, 0, []types.NodeID{1})
	require.NoError(t, err)
	assert.Len(t, sub.Out(), 0)
	assert.Equal(t, int64(1), bus.Emitted())

	_, err = e.AddClients(4, 0, []types.NodeID{8})
	require.NoError(t, err)
	ev = <-sub.Out()
	assert.Equal(t, []types.NodeID{8}, ev.Clients())
}

// TestEngine_LateSubscriberGetsLastChange 测试晚到的订阅者收到最近一次变化
func TestEngine_LateSubscriberGetsLastChange(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	e, err := NewEngine(topology.Sample(), nil, WithEvents(bus))
	require.NoError(t, err)
	require.NoError(t, e.RegisterService(4, 0, 0.1, 1))

	_, err = e.AddClients(4, 0, []types.NodeID{1, 5})
	require.NoError(t, err)
	_, err = e.AddClients(4, 0, []types.NodeID{8})
	require.NoError(t, err)

	sub, err := bus.Subscribe()
	require.NoError(t, err)
	require.Len(t, sub.Out(), 1)

	ev := <-sub.Out()
	assert.Equal(t, []types.NodeID{8}, ev.Clients())
	assert.Equal(t, types.Path{8, 6, 3, 4}, ev.Paths[8])
}
