package topology

import (
	"container/heap"

	"github.com/leqnet/go-leq/pkg/types"
)

// runDijkstra 以 root 为目的地运行 Dijkstra
//
// 从 root 向外松弛（链路无向，方向无关），每个节点的下一跳记录为
// 它第一次被确定时经由的邻居。
func runDijkstra(adj map[types.NodeID]map[types.NodeID]types.Weight, root types.NodeID) *spTable {
	t := &spTable{
		dest: root,
		dist: make(map[types.NodeID]types.Weight),
		next: make(map[types.NodeID]types.NodeID),
	}

	pq := make(distQueue, 0, len(adj))
	heap.Push(&pq, &distItem{node: root, via: root, dist: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(&pq).(*distItem)
		if _, settled := t.dist[cur.node]; settled {
			continue
		}

		t.dist[cur.node] = cur.dist
		if cur.node != root {
			t.next[cur.node] = cur.via
		}

		for nb, w := range adj[cur.node] {
			if _, settled := t.dist[nb]; settled {
				continue
			}
			heap.Push(&pq, &distItem{node: nb, via: cur.node, dist: cur.dist + w})
		}
	}

	return t
}

// ============================================================================
//                              优先队列（Dijkstra 用）
// ============================================================================

// distItem 优先队列项
type distItem struct {
	node types.NodeID
	via  types.NodeID
	dist types.Weight
}

// distQueue 按距离排序的最小堆，距离相同时按节点 ID
type distQueue []*distItem

func (q distQueue) Len() int { return len(q) }

func (q distQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	if q[i].node != q[j].node {
		return q[i].node < q[j].node
	}
	return q[i].via < q[j].via
}

func (q distQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *distQueue) Push(x any) {
	*q = append(*q, x.(*distItem))
}

func (q *distQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
