// Package topology 实现带最短路径缓存的无向加权拓扑图
//
// # 模块概述
//
// topology 包描述路由器之间的链路及其延迟代价，并为均衡引擎提供
// 最短距离与下一跳查询。
//
// 核心职责：
//   - 无向加权图维护（AddEdge 覆盖写入双向链路）
//   - 单目的地 Dijkstra（从目的地向外松弛）
//   - 按目的地缓存距离表与下一跳表（LRU）
//   - 拓扑加载（RocketFuel 文本格式、内置 Abilene 与示例拓扑）
//   - 客户端地址到接入节点的映射表（供外部控制层使用）
//
// # 缓存语义
//
// 第一次查询某个目的地 v 时，运行一次以 v 为根的 Dijkstra，得到所有节点到 v 的
// 距离和下一跳，整张表按 v 缓存。任何 AddEdge 都会在同一把锁内清空全部缓存并
// 递增拓扑代数（generation），下一次查询必然基于新拓扑重建。
//
// 等长路径之间的选择不做保证：只有路径长度对均衡有意义，调用方不能假设
// 等价路径中的某一条是规范路径。
//
// # 使用示例
//
//	g := topology.New()
//	_ = g.AddEdge(1, 2, 1)
//	_ = g.AddEdge(2, 3, 3)
//
//	d, ok := g.Distance(1, 3)   // 4, true
//	hop, ok := g.NextHop(1, 3)  // 2, true
//	p, err := g.ShortestPath(1, 3)
//
// # 线程安全
//
// 所有公共方法都是线程安全的。惰性填充缓存属于写操作，因此读查询同样持有互斥锁。
package topology
