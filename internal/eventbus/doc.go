// Package eventbus 实现类型化的事件总线
//
// 每个 Bus 只承载一种事件类型。发射不阻塞：订阅者缓冲区已满时事件被
// 丢弃并计数，每丢弃 100 个事件记录一次慢消费者告警。
//
// 有状态（Stateful）总线保留最后一个事件，新订阅者订阅时立即收到它。
package eventbus
