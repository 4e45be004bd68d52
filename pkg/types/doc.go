// Package types 定义 go-leq 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他 go-leq 内部包。
// 所有类型都是纯值类型，用于在拓扑、均衡引擎和调用方之间传递数据。
//
// # 文件组织
//
//   - ids.go    - NodeID, Weight, ServiceID, ServiceKey
//   - path.go   - Path 路径（客户端到服务器的有序节点序列）
//   - errors.go - 公共错误定义
package types
