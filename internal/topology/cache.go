package topology

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/leqnet/go-leq/pkg/types"
)

// ============================================================================
//                              最短路径缓存
// ============================================================================

// spTable 单目的地最短路径表
type spTable struct {
	dest types.NodeID

	// dist[u] 为 u 到 dest 的最短距离，不可达节点不在表中
	dist map[types.NodeID]types.Weight

	// next[u] 为 u 前往 dest 的下一跳，dest 自身不在表中
	next map[types.NodeID]types.NodeID

	// generation 构建时的拓扑代数
	generation uint64
}

// pathCache 按目的地缓存的 spTable 集合
//
// 只由 Graph 在持有 Graph.mu 时访问。
type pathCache struct {
	tables   *lru.Cache[types.NodeID, *spTable]
	capacity int

	// generation 每次拓扑编辑递增
	generation uint64

	hits   int64
	misses int64
	builds int64
	stale  int64
}

// CacheStats 最短路径缓存统计
type CacheStats struct {
	Tables     int
	Capacity   int
	Hits       int64
	Misses     int64
	Builds     int64
	Stale      int64
	Generation uint64
}

// newPathCache 创建容量为 size 的缓存
func newPathCache(size int) *pathCache {
	tables, err := lru.New[types.NodeID, *spTable](size)
	if err != nil {
		// 只有 size <= 0 才会出错，调用方已保证为正
		panic(err)
	}
	return &pathCache{
		tables:   tables,
		capacity: size,
	}
}

// get 查找目的地表
//
// 代数不一致的表视为过期：丢弃并按未命中处理。
func (c *pathCache) get(dest types.NodeID) (*spTable, bool) {
	t, ok := c.tables.Get(dest)
	if !ok {
		c.misses++
		return nil, false
	}
	if t.generation != c.generation {
		c.stale++
		c.misses++
		c.tables.Remove(dest)
		log.Warn("丢弃过期的最短路径表",
			"dest", dest,
			"table_generation", t.generation,
			"generation", c.generation)
		return nil, false
	}
	c.hits++
	return t, true
}

// put 存入目的地表
func (c *pathCache) put(dest types.NodeID, t *spTable) {
	c.builds++
	c.tables.Add(dest, t)
}

// invalidate 清空全部表并推进代数
func (c *pathCache) invalidate() {
	c.generation++
	c.tables.Purge()
}

// stats 返回统计快照
func (c *pathCache) stats() CacheStats {
	return CacheStats{
		Tables:     c.tables.Len(),
		Capacity:   c.capacity,
		Hits:       c.hits,
		Misses:     c.misses,
		Builds:     c.builds,
		Stale:      c.stale,
		Generation: c.generation,
	}
}
