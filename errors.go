package leq

import (
	"errors"

	"github.com/leqnet/go-leq/internal/equalize"
	"github.com/leqnet/go-leq/internal/topology"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// Router 生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrAlreadyStarted Router 已启动
	ErrAlreadyStarted = errors.New("router already started")

	// ErrRouterClosed Router 已关闭
	ErrRouterClosed = errors.New("router closed")

	// ────────────────────────────────────────────────────────────────────────
	// 均衡相关错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrServiceNotFound 服务未注册
	ErrServiceNotFound = equalize.ErrServiceNotFound

	// ErrClientNotFound 客户端不是服务成员
	ErrClientNotFound = equalize.ErrClientNotFound

	// ErrInvalidTolerance DDTolerance 无效
	ErrInvalidTolerance = equalize.ErrInvalidTolerance

	// ErrInvalidOverhead LOverhead 无效
	ErrInvalidOverhead = equalize.ErrInvalidOverhead

	// ────────────────────────────────────────────────────────────────────────
	// 拓扑相关错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNodeNotFound 节点不在拓扑中
	ErrNodeNotFound = topology.ErrNodeNotFound

	// ErrUnreachable 不可达
	ErrUnreachable = topology.ErrUnreachable

	// ErrNegativeWeight 链路代价为负
	ErrNegativeWeight = topology.ErrNegativeWeight
)
