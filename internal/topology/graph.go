package topology

import (
	"fmt"
	"slices"
	"sync"

	"github.com/leqnet/go-leq/internal/util/logger"
	"github.com/leqnet/go-leq/pkg/types"
)

var log = logger.Logger("topology")

// DefaultCacheSize 默认缓存的目的地表数量
const DefaultCacheSize = 1024

// ============================================================================
//                              拓扑图
// ============================================================================

// Graph 无向加权拓扑图
//
// adj[u][v] 为 u 与 v 之间链路的代价，两个方向总是同时存在且相等。
type Graph struct {
	mu sync.Mutex

	adj   map[types.NodeID]map[types.NodeID]types.Weight
	edges int

	// 最短路径缓存，由本实例独占
	cache *pathCache
}

// Option 拓扑图选项
type Option func(*Graph)

// WithCacheSize 设置最多缓存的目的地表数量
func WithCacheSize(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.cache = newPathCache(n)
		}
	}
}

// New 创建空拓扑图
func New(opts ...Option) *Graph {
	g := &Graph{
		adj: make(map[types.NodeID]map[types.NodeID]types.Weight),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cache == nil {
		g.cache = newPathCache(DefaultCacheSize)
	}
	return g
}

// ============================================================================
//                              拓扑编辑
// ============================================================================

// AddEdge 插入或覆盖 u 与 v 之间的双向链路
//
// 任何编辑都会在同一临界区内清空全部距离/下一跳表。
func (g *Graph) AddEdge(u, v types.NodeID, w types.Weight) error {
	if w < 0 {
		return fmt.Errorf("%w: %d-%d weight %d", ErrNegativeWeight, u, v, w)
	}
	if u == v {
		return fmt.Errorf("%w: %d", ErrSelfLoop, u)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.adj[u] == nil {
		g.adj[u] = make(map[types.NodeID]types.Weight)
	}
	if g.adj[v] == nil {
		g.adj[v] = make(map[types.NodeID]types.Weight)
	}
	if _, exists := g.adj[u][v]; !exists {
		g.edges++
	}
	g.adj[u][v] = w
	g.adj[v][u] = w

	g.cache.invalidate()
	return nil
}

// ============================================================================
//                              基本查询
// ============================================================================

// EdgeWeight 返回 u-v 链路代价，不存在时第二个返回值为 false
func (g *Graph) EdgeWeight(u, v types.NodeID) (types.Weight, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	w, ok := g.adj[u][v]
	return w, ok
}

// Neighbors 返回 u 的邻居及链路代价（副本），u 未知时返回空 map
func (g *Graph) Neighbors(u types.NodeID) map[types.NodeID]types.Weight {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[types.NodeID]types.Weight, len(g.adj[u]))
	for v, w := range g.adj[u] {
		out[v] = w
	}
	return out
}

// HasNode 检查节点是否存在
func (g *Graph) HasNode(u types.NodeID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.adj[u]
	return ok
}

// Nodes 返回按 ID 升序排列的全部节点
func (g *Graph) Nodes() []types.NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()

	nodes := make([]types.NodeID, 0, len(g.adj))
	for n := range g.adj {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	return nodes
}

// NodeCount 返回节点数
func (g *Graph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.adj)
}

// EdgeCount 返回无向链路数
func (g *Graph) EdgeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.edges
}

// ============================================================================
//                              最短路径查询
// ============================================================================

// Distance 返回 u 到 v 的最短距离
//
// 首次查询 v 时运行一次以 v 为根的 Dijkstra 并缓存整张表。
// 任一节点未知或不可达时第二个返回值为 false。
func (g *Graph) Distance(u, v types.NodeID) (types.Weight, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.tableLocked(v)
	if t == nil {
		return 0, false
	}
	d, ok := t.dist[u]
	return d, ok
}

// NextHop 返回 u 沿最短路径前往 v 的下一跳
//
// u == v 时没有下一跳，返回 false。
func (g *Graph) NextHop(u, v types.NodeID) (types.NodeID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.tableLocked(v)
	if t == nil {
		return 0, false
	}
	hop, ok := t.next[u]
	return hop, ok
}

// ShortestPath 沿缓存的下一跳构造 u 到 v 的最短路径（含两端）
func (g *Graph) ShortestPath(u, v types.NodeID) (types.Path, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.adj[u]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, u)
	}
	t := g.tableLocked(v)
	if t == nil {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, v)
	}
	if _, ok := t.dist[u]; !ok {
		return nil, fmt.Errorf("%w: %d -> %d", ErrUnreachable, u, v)
	}

	path := types.Path{u}
	for cur := u; cur != v; {
		cur = t.next[cur]
		path = append(path, cur)
		if len(path) > len(g.adj) {
			// 下一跳表出现环，只可能是缓存与拓扑不一致
			return nil, fmt.Errorf("%w: next-hop loop toward %d", ErrInvalidPath, v)
		}
	}
	return path, nil
}

// PathLength 计算路径上各链路代价之和
//
// 单节点路径长度为 0；空路径或缺失链路返回 ErrInvalidPath。
func (g *Graph) PathLength(p types.Path) (types.Weight, error) {
	if len(p) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrInvalidPath)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.adj[p[0]]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrNodeNotFound, p[0])
	}

	var total types.Weight
	for i := 0; i+1 < len(p); i++ {
		w, ok := g.adj[p[i]][p[i+1]]
		if !ok {
			return 0, fmt.Errorf("%w: no edge %d-%d", ErrInvalidPath, p[i], p[i+1])
		}
		total += w
	}
	return total, nil
}

// Generation 返回拓扑代数，每次 AddEdge 递增
func (g *Graph) Generation() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cache.generation
}

// CacheStats 返回缓存统计
func (g *Graph) CacheStats() CacheStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cache.stats()
}

// tableLocked 获取以 v 为目的地的表，必要时重建；v 未知时返回 nil
//
// 调用方必须持有 g.mu。
func (g *Graph) tableLocked(v types.NodeID) *spTable {
	if _, ok := g.adj[v]; !ok {
		return nil
	}
	if t, ok := g.cache.get(v); ok {
		return t
	}

	t := runDijkstra(g.adj, v)
	t.generation = g.cache.generation
	g.cache.put(v, t)

	log.Debug("最短路径表已构建",
		"dest", v,
		"reachable", len(t.dist),
		"generation", t.generation)
	return t
}
