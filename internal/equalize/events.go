package equalize

import (
	"maps"
	"slices"

	"github.com/leqnet/go-leq/internal/eventbus"
	"github.com/leqnet/go-leq/pkg/types"
)

// PathsChanged AddClients 结束后发布的路径变化事件
//
// 只在至少一个客户端的路径发生变化时发布。订阅方据此更新转发规则。
type PathsChanged struct {
	Service types.ServiceKey

	// Paths 变化客户端的新路径
	Paths map[types.NodeID]types.Path

	Status Status
}

// Clients 返回变化的客户端（已排序）
func (ev PathsChanged) Clients() []types.NodeID {
	return slices.Sorted(maps.Keys(ev.Paths))
}

// EventBus 路径变化事件总线
type EventBus = eventbus.Bus[PathsChanged]

// NewEventBus 创建路径变化事件总线
//
// 总线保留最近一次事件，之后的订阅者首先收到它。
func NewEventBus() *EventBus {
	return eventbus.NewBus[PathsChanged](
		eventbus.WithName("equalize/paths"),
		eventbus.Stateful(),
	)
}

// WithEvents 设置路径变化事件总线
func WithEvents(bus *EventBus) EngineOption {
	return func(e *Engine) {
		e.events = bus
	}
}

// publish 发布路径变化事件（调用方持有写锁）
func (e *Engine) publish(svc *service, changed []types.NodeID) {
	if e.events == nil || len(changed) == 0 {
		return
	}

	ev := PathsChanged{
		Service: svc.key,
		Paths:   make(map[types.NodeID]types.Path, len(changed)),
		Status:  svc.status,
	}
	for _, n := range changed {
		ev.Paths[n] = svc.paths[n].Clone()
	}
	if err := e.events.Emit(ev); err != nil {
		log.Debug("发布路径变化事件失败", "service", svc.key.String(), "err", err)
	}
}
