package equalize

import (
	"container/heap"
	"math"
	"slices"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/leqnet/go-leq/pkg/types"
)

// ============================================================================
//                              候选路径
// ============================================================================

// candidate 搜索中的一条部分路径
//
// 候选通过 parent 链共享前缀；沿链回溯即得到该候选已访问的节点集合。
type candidate struct {
	node   types.NodeID
	parent *candidate
	length types.Weight
	dd     types.Weight // |target - length|
	depth  int
	seq    uint64 // 入队序号，dd 相同时先入先出
	index  int    // heap 索引
}

// visited 节点是否已在该候选路径上
func (c *candidate) visited(n types.NodeID) bool {
	for p := c; p != nil; p = p.parent {
		if p.node == n {
			return true
		}
	}
	return false
}

// path 还原候选路径（从起点到当前节点）
func (c *candidate) path() types.Path {
	p := make(types.Path, c.depth+1)
	for cur, i := c, c.depth; cur != nil; cur, i = cur.parent, i-1 {
		p[i] = cur.node
	}
	return p
}

// frontier 候选优先队列（实现 heap.Interface）
type frontier []*candidate

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].dd != f[j].dd {
		return f[i].dd < f[j].dd
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) {
	f[i], f[j] = f[j], f[i]
	f[i].index = i
	f[j].index = j
}

func (f *frontier) Push(x interface{}) {
	c := x.(*candidate)
	c.index = len(*f)
	*f = append(*f, c)
}

func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	c.index = -1
	*f = old[:n-1]
	return c
}

// ============================================================================
//                              优先搜索
// ============================================================================

// searchRequest 一次搜索的参数
type searchRequest struct {
	source types.NodeID
	dest   types.NodeID

	// target 目标路径长度
	target types.Weight

	// cutoff 完整路径长度上界（含）
	cutoff float64

	// accept |target - len| 不超过该值的完整路径立即接受
	accept float64

	// bound 只保留 |target - len| 严格小于该值的完整路径
	bound types.Weight
}

// searchResult 搜索结果
type searchResult struct {
	// path 最佳完整路径；找不到比 bound 更好的路径时为 nil
	path types.Path

	// length path 的长度
	length types.Weight

	// dd path 与目标长度之差
	dd types.Weight

	// expansions 弹出的候选数
	expansions int

	// exhausted 扩展数或时间预算耗尽
	exhausted bool
}

// searcher 在拓扑上执行按目标长度排序的简单路径搜索
type searcher struct {
	topo          Topology
	clock         clock.Clock
	maxExpansions int
	timeout       time.Duration
}

// search 从 source 出发寻找长度最接近 target 的简单路径
//
// 候选按 |target - 已走长度| 排序；扩展到邻居 next 时，若
// 已走长度 + Distance(next, dest) 超过 cutoff 则剪枝。
func (s *searcher) search(req searchRequest) searchResult {
	res := searchResult{dd: req.bound}

	var deadline time.Time
	if s.timeout > 0 {
		deadline = s.clock.Now().Add(s.timeout)
	}

	var seq uint64
	pq := &frontier{}
	heap.Init(pq)
	heap.Push(pq, &candidate{
		node: req.source,
		dd:   absWeight(req.target),
		seq:  seq,
	})

	for pq.Len() > 0 {
		if s.maxExpansions > 0 && res.expansions >= s.maxExpansions {
			res.exhausted = true
			break
		}
		if !deadline.IsZero() && !s.clock.Now().Before(deadline) {
			res.exhausted = true
			break
		}

		cur := heap.Pop(pq).(*candidate)
		res.expansions++

		if cur.node == req.dest {
			if cur.dd < res.dd {
				res.path = cur.path()
				res.length = cur.length
				res.dd = cur.dd
				if float64(cur.dd) <= req.accept {
					break
				}
			}
			continue
		}

		neighbors := s.topo.Neighbors(cur.node)
		ids := make([]types.NodeID, 0, len(neighbors))
		for n := range neighbors {
			ids = append(ids, n)
		}
		slices.Sort(ids)

		for _, next := range ids {
			if cur.visited(next) {
				continue
			}
			length := cur.length + neighbors[next]
			rest, ok := s.topo.Distance(next, req.dest)
			if !ok || float64(length+rest) > req.cutoff {
				continue
			}
			seq++
			heap.Push(pq, &candidate{
				node:   next,
				parent: cur,
				length: length,
				dd:     absWeight(req.target - length),
				depth:  cur.depth + 1,
				seq:    seq,
			})
		}
	}

	return res
}

func absWeight(w types.Weight) types.Weight {
	if w < 0 {
		return -w
	}
	return w
}

// minCutoff 返回 min(maxLatency, maxLen+mdd-1)
func minCutoff(maxLatency float64, maxLen, mdd types.Weight) float64 {
	return math.Min(maxLatency, float64(maxLen+mdd-1))
}
