// Package equalize 实现延迟均衡路由引擎
//
// 每个服务锚定在一个服务器节点上。调用方注册服务后，不断提交新观察到的
// 客户端节点；引擎先为新客户端分配缓存中的最短路径，再反复把当前最短
// 的成员换到更长的简单路径上，直到所有成员路径长度之差（MDD）落在
// DDTolerance × maxLatency 以内，或确认无法继续改进。
//
// # 均衡循环
//
// 每一轮：
//   - maxMDD = DDTolerance × maxLatency
//   - 找出当前最短 / 最长成员，mdd = maxLen - minLen
//   - mdd ≤ maxMDD 时收敛
//   - 否则以 maxLen 为目标，在 cutoff = min(maxLatency, maxLen+mdd-1) 内
//     对最短成员做优先搜索（按 |target - 已走长度| 排序的简单路径）
//   - 找到的最佳路径不比 mdd 更好时停止；否则替换该成员路径，继续下一轮
//
// 搜索受 MaxExpansions 与 SearchTimeout 约束，循环受 MaxRounds 约束；
// 预算耗尽时以 StatusBudgetExhausted 结束，并记录告警日志与指标。
//
// # 并发
//
// Engine 的全部方法都可并发调用；写操作（RegisterService、AddClients）
// 之间串行执行。
package equalize
