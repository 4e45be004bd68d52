package leq

import (
	"github.com/leqnet/go-leq/internal/equalize"
	"github.com/leqnet/go-leq/internal/eventbus"
	"github.com/leqnet/go-leq/internal/topology"
	"github.com/leqnet/go-leq/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

type (
	// NodeID 拓扑节点 ID
	NodeID = types.NodeID

	// Weight 链路代价（延迟）
	Weight = types.Weight

	// ServiceID 服务 ID
	ServiceID = types.ServiceID

	// ServiceKey 服务标识（服务器 + 服务 ID）
	ServiceKey = types.ServiceKey

	// Path 从客户端到服务器的节点序列
	Path = types.Path

	// Status 均衡状态
	Status = equalize.Status

	// AddResult AddClients 的结果
	AddResult = equalize.AddResult

	// ServiceInfo 服务概要
	ServiceInfo = equalize.ServiceInfo

	// PathsChanged 路径变化事件
	PathsChanged = equalize.PathsChanged

	// Subscription 路径变化事件订阅
	Subscription = eventbus.Subscription[equalize.PathsChanged]

	// CacheStats 最短路径缓存统计
	CacheStats = topology.CacheStats

	// AttachmentTable 客户端地址到接入节点的映射
	AttachmentTable = topology.AttachmentTable
)

// 均衡状态
const (
	StatusPending         = equalize.StatusPending
	StatusConverged       = equalize.StatusConverged
	StatusNoImprovement   = equalize.StatusNoImprovement
	StatusBudgetExhausted = equalize.StatusBudgetExhausted
)

// Abilene 拓扑的城市节点
const (
	Seattle    = topology.Seattle
	SaltLake   = topology.SaltLake
	LosAngeles = topology.LosAngeles
	KansasCity = topology.KansasCity
	Houston    = topology.Houston
	Chicago    = topology.Chicago
	Atlanta    = topology.Atlanta
	Washington = topology.Washington
	NewYork    = topology.NewYork
)

// NewAttachmentTable 创建空的接入表
func NewAttachmentTable() *AttachmentTable {
	return topology.NewAttachmentTable()
}

// SampleAttachments 返回示例拓扑的客户端接入表
func SampleAttachments() *AttachmentTable {
	return topology.SampleAttachments()
}
