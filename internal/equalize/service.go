package equalize

import (
	"maps"
	"slices"

	"github.com/leqnet/go-leq/pkg/types"
)

// service 单个服务的均衡状态
type service struct {
	key         types.ServiceKey
	ddTolerance float64
	lOverhead   float64

	// maxLatency 只随新客户端的初始路径增长，从不下降
	maxLatency float64

	paths   map[types.NodeID]types.Path
	lengths map[types.NodeID]types.Weight
	changed map[types.NodeID]struct{}
	status  Status

	// generation lengths 对应的拓扑代数
	generation uint64
}

func newService(key types.ServiceKey, ddTolerance, lOverhead float64) *service {
	return &service{
		key:         key,
		ddTolerance: ddTolerance,
		lOverhead:   lOverhead,
		paths:       make(map[types.NodeID]types.Path),
		lengths:     make(map[types.NodeID]types.Weight),
		changed:     make(map[types.NodeID]struct{}),
		status:      StatusPending,
	}
}

// isMember 是否已是成员
func (s *service) isMember(n types.NodeID) bool {
	_, ok := s.paths[n]
	return ok
}

// setPath 设置成员路径
func (s *service) setPath(n types.NodeID, p types.Path, length types.Weight) {
	s.paths[n] = p
	s.lengths[n] = length
}

// refreshLengths 按当前链路代价重新计算成员路径长度
func (s *service) refreshLengths(topo Topology) {
	gen := topo.Generation()
	for n, p := range s.paths {
		var l types.Weight
		for i := 1; i < len(p); i++ {
			w, ok := topo.EdgeWeight(p[i-1], p[i])
			if !ok {
				log.Warn("成员路径包含不存在的链路",
					"service", s.key.String(),
					"client", int64(n),
					"path", p.String())
				break
			}
			l += w
		}
		s.lengths[n] = l
	}
	s.generation = gen
}

// stale 成员长度是否基于旧的拓扑代数
func (s *service) stale(topo Topology) bool {
	return len(s.paths) > 0 && s.generation != topo.Generation()
}

// maxMDD 当前允许的最大延迟差
func (s *service) maxMDD() float64 {
	return s.ddTolerance * s.maxLatency
}

// extremes 返回最短与最长成员
//
// 长度相同时取 NodeID 较小者，保证结果确定。
func (s *service) extremes() (minNode types.NodeID, minLen types.Weight, maxNode types.NodeID, maxLen types.Weight) {
	first := true
	for _, n := range s.members() {
		l := s.lengths[n]
		if first {
			minNode, minLen, maxNode, maxLen = n, l, n, l
			first = false
			continue
		}
		if l < minLen {
			minNode, minLen = n, l
		}
		if l > maxLen {
			maxNode, maxLen = n, l
		}
	}
	return
}

// spread 当前成员的延迟差
func (s *service) spread() types.Weight {
	if len(s.paths) == 0 {
		return 0
	}
	_, minLen, _, maxLen := s.extremes()
	return maxLen - minLen
}

// members 返回排序后的成员列表
func (s *service) members() []types.NodeID {
	return slices.Sorted(maps.Keys(s.paths))
}

// changedList 返回排序后的变化集合
func (s *service) changedList() []types.NodeID {
	return slices.Sorted(maps.Keys(s.changed))
}

// snapshot 返回路径的深拷贝
func (s *service) snapshot() map[types.NodeID]types.Path {
	out := make(map[types.NodeID]types.Path, len(s.paths))
	for n, p := range s.paths {
		out[n] = p.Clone()
	}
	return out
}
