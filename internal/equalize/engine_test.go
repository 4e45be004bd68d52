package equalize

import (
	"math/rand"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leqnet/go-leq/internal/topology"
	"github.com/leqnet/go-leq/pkg/types"
)

const sampleServer types.NodeID = 4

// newSampleEngine 基于示例拓扑创建引擎并注册服务 4/0
func newSampleEngine(t *testing.T, cfg *Config, opts ...EngineOption) (*Engine, *topology.Graph) {
	t.Helper()

	g := topology.Sample()
	e, err := NewEngine(g, cfg, opts...)
	require.NoError(t, err)
	require.NoError(t, e.RegisterService(sampleServer, 0, 0.1, 1.0))
	return e, g
}

// requireValidPath 检查路径连通、简单，且长度与链路代价之和一致
func requireValidPath(t *testing.T, g Topology, p types.Path, client, server types.NodeID, length types.Weight) {
	t.Helper()

	src, ok := p.Source()
	require.True(t, ok)
	dst, _ := p.Destination()
	assert.Equal(t, client, src)
	assert.Equal(t, server, dst)

	seen := make(map[types.NodeID]bool)
	var sum types.Weight
	for i, n := range p {
		require.False(t, seen[n], "path %s revisits %d", p, n)
		seen[n] = true
		if i == 0 {
			continue
		}
		w, ok := g.EdgeWeight(p[i-1], n)
		require.True(t, ok, "path %s uses missing edge %d-%d", p, p[i-1], n)
		sum += w
	}
	assert.Equal(t, length, sum)
}

// ============================================================================
//                              注册测试
// ============================================================================

// TestEngine_RegisterService 测试服务注册
func TestEngine_RegisterService(t *testing.T) {
	e, _ := newSampleEngine(t, nil)

	keys := e.Services()
	require.Len(t, keys, 1)
	assert.Equal(t, types.NewServiceKey(4, 0), keys[0])

	status, err := e.Status(4, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)

	info, err := e.Info(4, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.1, info.DDTolerance)
	assert.Equal(t, 1.0, info.LOverhead)
	assert.Zero(t, info.MaxLatency)
	assert.Zero(t, info.Members)
}

// TestEngine_RegisterService_Idempotent 测试重复注册不改变状态
func TestEngine_RegisterService_Idempotent(t *testing.T) {
	e, _ := newSampleEngine(t, nil)

	_, err := e.AddClients(4, 0, []types.NodeID{1, 5})
	require.NoError(t, err)

	before, err := e.Info(4, 0)
	require.NoError(t, err)
	paths, err := e.Paths(4, 0)
	require.NoError(t, err)

	require.NoError(t, e.RegisterService(4, 0, 0.9, 3.0))

	after, err := e.Info(4, 0)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	again, err := e.Paths(4, 0)
	require.NoError(t, err)
	assert.Equal(t, paths, again)
	assert.Len(t, e.Services(), 1)
}

// TestEngine_RegisterService_Invalid 测试非法注册参数
func TestEngine_RegisterService_Invalid(t *testing.T) {
	e, err := NewEngine(topology.Sample(), nil)
	require.NoError(t, err)

	assert.ErrorIs(t, e.RegisterService(4, 0, -0.1, 1), ErrInvalidTolerance)
	assert.ErrorIs(t, e.RegisterService(4, 0, 0.1, -1), ErrInvalidOverhead)
	assert.ErrorIs(t, e.RegisterService(99, 0, 0.1, 1), ErrNodeNotFound)
	assert.Empty(t, e.Services())

	require.NoError(t, e.RegisterDefault(4, 7))
	info, err := e.Info(4, 7)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().DefaultDDTolerance, info.DDTolerance)
}

// TestNewEngine_Invalid 测试引擎参数校验
func TestNewEngine_Invalid(t *testing.T) {
	_, err := NewEngine(nil, nil)
	assert.ErrorIs(t, err, ErrNilTopology)

	cfg := DefaultConfig()
	cfg.MaxRounds = -1
	_, err = NewEngine(topology.Sample(), cfg)
	assert.Error(t, err)
}

// ============================================================================
//                              均衡测试
// ============================================================================

// TestEngine_AddClients_Sample 测试示例拓扑上的均衡
func TestEngine_AddClients_Sample(t *testing.T) {
	e, g := newSampleEngine(t, nil)

	res, err := e.AddClients(4, 0, []types.NodeID{1, 5})
	require.NoError(t, err)
	assert.Equal(t, []types.NodeID{1, 5}, res.Added)
	assert.Empty(t, res.Rejected)
	assert.NoError(t, res.Err())
	assert.Equal(t, StatusConverged, res.Status)
	assert.Equal(t, 1, res.Rounds)
	assert.Equal(t, []types.NodeID{1, 5}, res.Changed)

	paths, err := e.Paths(4, 0)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	// 5 的最短路径长度为 5，被换到长度为 6 的路径上
	assert.Equal(t, types.Path{5, 2, 6, 4}, paths[5])

	for c, p := range paths {
		l, err := e.PathLength(4, 0, c)
		require.NoError(t, err)
		assert.Equal(t, types.Weight(6), l)
		requireValidPath(t, g, p, c, 4, l)
	}

	info, err := e.Info(4, 0)
	require.NoError(t, err)
	assert.Equal(t, 6.0, info.MaxLatency)
	assert.InDelta(t, 0.6, info.MaxMDD, 1e-9)
	assert.Zero(t, info.Spread)

	updated, err := e.UpdatedClients(4, 0)
	require.NoError(t, err)
	assert.Equal(t, []types.NodeID{1, 5}, updated)
}

// TestEngine_AddClients_ChangeTracking 测试变化集合只包含本次变化的客户端
func TestEngine_AddClients_ChangeTracking(t *testing.T) {
	e, g := newSampleEngine(t, nil)

	_, err := e.AddClients(4, 0, []types.NodeID{1, 5})
	require.NoError(t, err)
	before, err := e.Paths(4, 0)
	require.NoError(t, err)

	res, err := e.AddClients(4, 0, []types.NodeID{8})
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, res.Status)
	assert.Equal(t, []types.NodeID{8}, res.Changed)

	after, err := e.Paths(4, 0)
	require.NoError(t, err)
	assert.Equal(t, before[1], after[1])
	assert.Equal(t, before[5], after[5])
	assert.Equal(t, types.Path{8, 6, 3, 4}, after[8])
	requireValidPath(t, g, after[8], 8, 4, 6)

	// maxLatency 不因较短的新客户端下降
	info, err := e.Info(4, 0)
	require.NoError(t, err)
	assert.Equal(t, 6.0, info.MaxLatency)
	assert.Equal(t, 3, info.Members)

	// 只提交已有成员：不均衡，变化集合清空
	res, err = e.AddClients(4, 0, []types.NodeID{1, 8})
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.Empty(t, res.Changed)
	assert.Zero(t, res.Rounds)
	assert.Equal(t, StatusConverged, res.Status)

	updated, err := e.UpdatedClients(4, 0)
	require.NoError(t, err)
	assert.Empty(t, updated)
}

// TestEngine_AddClients_SingleClient 测试单个客户端立即收敛
func TestEngine_AddClients_SingleClient(t *testing.T) {
	e, g := newSampleEngine(t, nil)

	res, err := e.AddClients(4, 0, []types.NodeID{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []types.NodeID{1}, res.Added)
	assert.Equal(t, StatusConverged, res.Status)
	assert.Zero(t, res.Rounds)

	sp, err := g.ShortestPath(1, 4)
	require.NoError(t, err)
	paths, err := e.Paths(4, 0)
	require.NoError(t, err)
	assert.Equal(t, sp, paths[1])
}

// TestEngine_AddClients_ServerAsClient 测试服务器节点自身作为客户端
func TestEngine_AddClients_ServerAsClient(t *testing.T) {
	e, _ := newSampleEngine(t, nil)

	res, err := e.AddClients(4, 0, []types.NodeID{4})
	require.NoError(t, err)
	assert.Equal(t, []types.NodeID{4}, res.Added)

	l, err := e.PathLength(4, 0, 4)
	require.NoError(t, err)
	assert.Zero(t, l)

	paths, err := e.Paths(4, 0)
	require.NoError(t, err)
	assert.Equal(t, types.Path{4}, paths[4])
}

// TestEngine_AddClients_Rejected 测试未知与不可达客户端被拒绝
func TestEngine_AddClients_Rejected(t *testing.T) {
	e, g := newSampleEngine(t, nil)
	require.NoError(t, g.AddEdge(100, 101, 1))

	res, err := e.AddClients(4, 0, []types.NodeID{100, 999, 1})
	require.NoError(t, err)
	assert.Equal(t, []types.NodeID{1}, res.Added)
	require.Len(t, res.Rejected, 2)
	assert.ErrorIs(t, res.Rejected[100], ErrUnreachable)
	assert.ErrorIs(t, res.Rejected[999], ErrNodeNotFound)

	combined := res.Err()
	require.Error(t, combined)
	assert.ErrorIs(t, combined, ErrUnreachable)
	assert.ErrorIs(t, combined, ErrNodeNotFound)

	_, err = e.PathLength(4, 0, 100)
	assert.ErrorIs(t, err, ErrClientNotFound)
}

// TestEngine_UnknownService 测试未注册服务
func TestEngine_UnknownService(t *testing.T) {
	e, _ := newSampleEngine(t, nil)

	_, err := e.AddClients(4, 1, []types.NodeID{1})
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = e.Paths(1, 0)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = e.UpdatedClients(1, 0)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = e.PathLength(1, 0, 1)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = e.Status(1, 0)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = e.Info(1, 0)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

// TestEngine_PathsSnapshot 测试快照与内部状态隔离
func TestEngine_PathsSnapshot(t *testing.T) {
	e, _ := newSampleEngine(t, nil)
	_, err := e.AddClients(4, 0, []types.NodeID{1})
	require.NoError(t, err)

	paths, err := e.Paths(4, 0)
	require.NoError(t, err)
	paths[1][0] = 42
	delete(paths, 1)

	again, err := e.Paths(4, 0)
	require.NoError(t, err)
	require.Contains(t, again, types.NodeID(1))
	assert.Equal(t, types.NodeID(1), again[1][0])
}

// TestEngine_WideTolerance 测试容忍度不小于 1 时无需搜索
func TestEngine_WideTolerance(t *testing.T) {
	g := topology.Abilene()
	e, err := NewEngine(g, nil)
	require.NoError(t, err)
	require.NoError(t, e.RegisterService(topology.NewYork, 0, 1.0, 1.0))

	clients := []types.NodeID{
		topology.Seattle, topology.SaltLake, topology.LosAngeles,
		topology.Houston, topology.Chicago,
	}
	res, err := e.AddClients(topology.NewYork, 0, clients)
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, res.Status)
	assert.Zero(t, res.Rounds)

	for _, c := range clients {
		sp, err := g.ShortestPath(c, topology.NewYork)
		require.NoError(t, err)
		paths, err := e.Paths(topology.NewYork, 0)
		require.NoError(t, err)
		assert.Equal(t, sp, paths[c])
	}
}

// ============================================================================
//                              停止条件测试
// ============================================================================

// starTopology 服务器 0；客户端 1 直连（代价 10），客户端 2、3 直连（代价 1），
// 另有 2-4-0 与 3-5-0 两条长度为 10 的绕行路径
func starTopology(t *testing.T) *topology.Graph {
	t.Helper()

	g := topology.New()
	for _, e := range [][3]int64{
		{1, 0, 10},
		{2, 0, 1},
		{3, 0, 1},
		{2, 4, 5},
		{4, 0, 5},
		{3, 5, 5},
		{5, 0, 5},
	} {
		require.NoError(t, g.AddEdge(types.NodeID(e[0]), types.NodeID(e[1]), types.Weight(e[2])))
	}
	return g
}

// TestEngine_MultiRound 测试多轮均衡
func TestEngine_MultiRound(t *testing.T) {
	g := starTopology(t)
	e, err := NewEngine(g, nil)
	require.NoError(t, err)
	require.NoError(t, e.RegisterService(0, 0, 0, 1))

	res, err := e.AddClients(0, 0, []types.NodeID{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, res.Status)
	assert.Equal(t, 2, res.Rounds)

	paths, err := e.Paths(0, 0)
	require.NoError(t, err)
	assert.Equal(t, types.Path{2, 4, 0}, paths[2])
	assert.Equal(t, types.Path{3, 5, 0}, paths[3])
	for c, p := range paths {
		requireValidPath(t, g, p, c, 0, 10)
	}
}

// TestEngine_MaxRounds 测试轮数预算
func TestEngine_MaxRounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRounds = 1

	e, err := NewEngine(starTopology(t), cfg)
	require.NoError(t, err)
	require.NoError(t, e.RegisterService(0, 0, 0, 1))

	res, err := e.AddClients(0, 0, []types.NodeID{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, StatusBudgetExhausted, res.Status)
	assert.Equal(t, 1, res.Rounds)

	// 已完成的替换保留
	l, err := e.PathLength(0, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, types.Weight(10), l)

	status, err := e.Status(0, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusBudgetExhausted, status)
}

// TestEngine_NoImprovement 测试找不到更好路径时提前停止
func TestEngine_NoImprovement(t *testing.T) {
	g := topology.New()
	require.NoError(t, g.AddEdge(1, 0, 10))
	require.NoError(t, g.AddEdge(2, 0, 1))

	e, err := NewEngine(g, nil)
	require.NoError(t, err)
	require.NoError(t, e.RegisterService(0, 0, 0, 1))

	res, err := e.AddClients(0, 0, []types.NodeID{1, 2})
	require.NoError(t, err)
	assert.Equal(t, StatusNoImprovement, res.Status)
	assert.Equal(t, 1, res.Rounds)

	paths, err := e.Paths(0, 0)
	require.NoError(t, err)
	assert.Equal(t, types.Path{2, 0}, paths[2])
}

// TestEngine_MaxExpansions 测试扩展数预算
func TestEngine_MaxExpansions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxExpansions = 1

	e, _ := newSampleEngine(t, cfg)
	res, err := e.AddClients(4, 0, []types.NodeID{1, 5})
	require.NoError(t, err)
	assert.Equal(t, StatusBudgetExhausted, res.Status)
	assert.Equal(t, 1, res.Rounds)

	info, err := e.Info(4, 0)
	require.NoError(t, err)
	assert.Equal(t, types.Weight(1), info.Spread)
}

// tickingTopology 每次读取邻居时推进模拟时钟
type tickingTopology struct {
	*topology.Graph
	mock *clock.Mock
	step time.Duration
}

func (tt *tickingTopology) Neighbors(u types.NodeID) map[types.NodeID]types.Weight {
	tt.mock.Add(tt.step)
	return tt.Graph.Neighbors(u)
}

// TestEngine_SearchTimeout 测试搜索时间预算
func TestEngine_SearchTimeout(t *testing.T) {
	mock := clock.NewMock()
	topo := &tickingTopology{Graph: topology.Sample(), mock: mock, step: time.Second}

	cfg := DefaultConfig()
	cfg.SearchTimeout = 500 * time.Millisecond

	e, err := NewEngine(topo, cfg, WithClock(mock))
	require.NoError(t, err)
	require.NoError(t, e.RegisterService(4, 0, 0.1, 1))

	res, err := e.AddClients(4, 0, []types.NodeID{1, 5})
	require.NoError(t, err)
	assert.Equal(t, StatusBudgetExhausted, res.Status)

	// 不限时则正常收敛
	mock2 := clock.NewMock()
	topo2 := &tickingTopology{Graph: topology.Sample(), mock: mock2, step: time.Second}
	e2, err := NewEngine(topo2, DefaultConfig(), WithClock(mock2))
	require.NoError(t, err)
	require.NoError(t, e2.RegisterService(4, 0, 0.1, 1))
	res, err = e2.AddClients(4, 0, []types.NodeID{1, 5})
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, res.Status)
}

// ============================================================================
//                              随机拓扑测试
// ============================================================================

// randomTopology 生成连通的随机拓扑（生成树 + 额外链路）
func randomTopology(rng *rand.Rand, nodes, extra int) *topology.Graph {
	g := topology.New()
	for i := 1; i < nodes; i++ {
		parent := rng.Intn(i)
		_ = g.AddEdge(types.NodeID(i), types.NodeID(parent), types.Weight(1+rng.Intn(9)))
	}
	for i := 0; i < extra; i++ {
		u, v := rng.Intn(nodes), rng.Intn(nodes)
		if u == v {
			continue
		}
		_ = g.AddEdge(types.NodeID(u), types.NodeID(v), types.Weight(1+rng.Intn(9)))
	}
	return g
}

// TestEngine_RandomTopologies 测试随机拓扑上的路径合法性与收敛报告
func TestEngine_RandomTopologies(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		g := randomTopology(rng, 12+rng.Intn(8), 20)
		nodes := g.Nodes()
		server := nodes[rng.Intn(len(nodes))]

		cfg := DefaultConfig()
		cfg.MaxRounds = 64
		cfg.MaxExpansions = 20_000
		e, err := NewEngine(g, cfg)
		require.NoError(t, err)
		require.NoError(t, e.RegisterService(server, 1, 0.2, 1.0))

		prevLatency := 0.0
		prevMembers := 0
		for batch := 0; batch < 3; batch++ {
			clients := make([]types.NodeID, 0, 3)
			for i := 0; i < 3; i++ {
				clients = append(clients, nodes[rng.Intn(len(nodes))])
			}

			res, err := e.AddClients(server, 1, clients)
			require.NoError(t, err)
			require.Empty(t, res.Rejected)

			info, err := e.Info(server, 1)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, info.MaxLatency, prevLatency, "seed %d", seed)
			assert.GreaterOrEqual(t, info.Members, prevMembers, "seed %d", seed)
			prevLatency, prevMembers = info.MaxLatency, info.Members

			if res.Status == StatusConverged {
				assert.LessOrEqual(t, float64(info.Spread), info.MaxMDD, "seed %d", seed)
			} else {
				assert.NotEqual(t, StatusPending, res.Status)
			}

			paths, err := e.Paths(server, 1)
			require.NoError(t, err)
			for c, p := range paths {
				l, err := e.PathLength(server, 1, c)
				require.NoError(t, err)
				requireValidPath(t, g, p, c, server, l)
				assert.LessOrEqual(t, float64(l), info.MaxLatency, "seed %d", seed)
			}
		}
	}
}
