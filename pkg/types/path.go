package types

import "strings"

// Path 从客户端到服务器（含两端）的有序节点序列
type Path []NodeID

// Source 返回路径起点，空路径返回 false
func (p Path) Source() (NodeID, bool) {
	if len(p) == 0 {
		return 0, false
	}
	return p[0], true
}

// Destination 返回路径终点，空路径返回 false
func (p Path) Destination() (NodeID, bool) {
	if len(p) == 0 {
		return 0, false
	}
	return p[len(p)-1], true
}

// Hops 返回跳数
func (p Path) Hops() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Contains 检查节点是否在路径上
func (p Path) Contains(n NodeID) bool {
	for _, v := range p {
		if v == n {
			return true
		}
	}
	return false
}

// Equal 逐节点比较两条路径
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone 返回路径的副本
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// String 返回 "1->2->3" 形式的字符串
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = n.String()
	}
	return strings.Join(parts, "->")
}
