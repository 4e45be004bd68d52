package equalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/leqnet/go-leq/internal/topology"
	"github.com/leqnet/go-leq/pkg/types"
)

// TestEngine_Concurrent 测试多个服务并发注册、加入与查询
func TestEngine_Concurrent(t *testing.T) {
	g := topology.Abilene()
	e, err := NewEngine(g, nil)
	require.NoError(t, err)

	nodes := g.Nodes()
	var eg errgroup.Group
	for _, server := range nodes {
		server := server
		eg.Go(func() error {
			if err := e.RegisterService(server, 0, 0.1, 1); err != nil {
				return err
			}
			for _, c := range nodes {
				if _, err := e.AddClients(server, 0, []types.NodeID{c}); err != nil {
					return err
				}
				if _, err := e.Paths(server, 0); err != nil {
					return err
				}
			}
			return nil
		})
		eg.Go(func() error {
			_ = e.Services()
			_, _ = g.Distance(server, nodes[0])
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	require.Len(t, e.Services(), len(nodes))
	for _, server := range nodes {
		info, err := e.Info(server, 0)
		require.NoError(t, err)
		assert.Equal(t, len(nodes), info.Members)
		assert.NotEqual(t, StatusPending, info.Status)
	}
	t.Log("✅ 并发测试通过")
}
