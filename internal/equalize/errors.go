package equalize

import (
	"errors"

	"github.com/leqnet/go-leq/internal/topology"
)

var (
	// ErrServiceNotFound 服务未注册
	ErrServiceNotFound = errors.New("equalize: service not found")

	// ErrClientNotFound 客户端不是服务成员
	ErrClientNotFound = errors.New("equalize: client not found")

	// ErrInvalidTolerance DDTolerance 无效（负数或 NaN）
	ErrInvalidTolerance = errors.New("equalize: invalid dd tolerance")

	// ErrInvalidOverhead LOverhead 无效（负数或 NaN）
	ErrInvalidOverhead = errors.New("equalize: invalid latency overhead")

	// ErrNilTopology 未提供拓扑
	ErrNilTopology = errors.New("equalize: nil topology")

	// ErrNodeNotFound 节点不在拓扑中
	ErrNodeNotFound = topology.ErrNodeNotFound

	// ErrUnreachable 客户端无法到达服务器
	ErrUnreachable = topology.ErrUnreachable
)

// rejectReason 返回拒绝原因的指标标签
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrNodeNotFound):
		return "unknown_node"
	case errors.Is(err, ErrUnreachable):
		return "unreachable"
	default:
		return "other"
	}
}
