package types

import (
	"fmt"
	"strconv"
)

// ============================================================================
//                              NodeID - 节点标识
// ============================================================================

// NodeID 拓扑节点标识符
//
// 对引擎而言是不透明的标识，仅用于比较和作为 map 键。
// 从 RocketFuel 文件加载时按首次出现顺序从 0 开始编号。
type NodeID int64

// String 返回十进制表示
func (id NodeID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseNodeID 从十进制字符串解析 NodeID
func ParseNodeID(s string) (NodeID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNodeID, s)
	}
	return NodeID(n), nil
}

// ============================================================================
//                              Weight - 链路代价
// ============================================================================

// Weight 链路延迟代价（非负整数）
//
// 路径长度为路径上所有链路 Weight 之和。
type Weight int64

// ============================================================================
//                              ServiceKey - 服务标识
// ============================================================================

// ServiceID 服务标识（在同一服务器节点内唯一）
type ServiceID uint32

// ServiceKey 服务的复合键
//
// 一个服务由其所在的服务器节点和服务 ID 共同确定。
// 这是一个可比较的值类型，可直接用作 map 键。
type ServiceKey struct {
	Server NodeID
	ID     ServiceID
}

// NewServiceKey 创建服务键
func NewServiceKey(server NodeID, id ServiceID) ServiceKey {
	return ServiceKey{Server: server, ID: id}
}

// String 返回 "server/id" 形式的字符串
func (k ServiceKey) String() string {
	return fmt.Sprintf("%d/%d", k.Server, k.ID)
}
