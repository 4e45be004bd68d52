package leq

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/leqnet/go-leq/config"
	"github.com/leqnet/go-leq/internal/equalize"
	"github.com/leqnet/go-leq/internal/eventbus"
	"github.com/leqnet/go-leq/internal/topology"
	"github.com/leqnet/go-leq/internal/util/logger"
)

var log = logger.Logger("leq")

// Router 延迟均衡路由器
//
// Router 持有一份拓扑与一个均衡引擎，由 Fx 装配。查询与均衡方法在
// New 之后即可使用；Start / Close 驱动各模块的生命周期钩子。
type Router struct {
	mu      sync.RWMutex
	app     *fx.App
	cfg     *config.Config
	started bool
	closed  bool

	registry *prometheus.Registry

	graph  *topology.Graph
	engine *equalize.Engine
	events *equalize.EventBus
}

// New 创建 Router
//
// 示例：
//
//	r, err := leq.New(
//	    leq.WithTopologySource("abilene"),
//	    leq.WithPreset("strict"),
//	)
func New(opts ...Option) (*Router, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	cfg, err := o.toConfig()
	if err != nil {
		return nil, fmt.Errorf("build config: %w", err)
	}
	if cfg.Log.Level != "" {
		if bad := logger.ApplyLevelSpec(cfg.Log.Level); bad > 0 {
			log.Warn("日志级别配置包含无效项", "spec", cfg.Log.Level, "invalid", bad)
		}
	}

	r := &Router{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
	}
	app, err := buildFxApp(cfg, o, r)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	r.app = app
	return r, nil
}

// Start 快捷启动函数
//
// 等价于 New() + Start()。
func Start(ctx context.Context, opts ...Option) (*Router, error) {
	r, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Start(ctx); err != nil {
		return nil, fmt.Errorf("start router: %w", err)
	}
	return r, nil
}

// Start 启动 Router
func (r *Router) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRouterClosed
	}
	if r.started {
		return ErrAlreadyStarted
	}
	if err := r.app.Start(ctx); err != nil {
		return err
	}
	r.started = true

	log.Info("路由器已启动",
		"version", Version,
		"nodes", r.graph.NodeCount(),
		"source", r.cfg.Topology.Source)
	return nil
}

// Close 关闭 Router
//
// 重复调用返回 nil。
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if !r.started {
		return nil
	}
	return r.app.Stop(context.Background())
}

// check 检查 Router 是否可用
func (r *Router) check() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrRouterClosed
	}
	return nil
}

// Config 返回生效配置的副本
func (r *Router) Config() *config.Config {
	return r.cfg.Clone()
}

// Registry 返回 Router 私有的指标 registry
//
// 使用 WithRegisterer 时指标注册到外部 registerer，此 registry 为空。
func (r *Router) Registry() *prometheus.Registry {
	return r.registry
}

// ════════════════════════════════════════════════════════════════════════════
//                              服务与客户端
// ════════════════════════════════════════════════════════════════════════════

// RegisterService 注册服务；已注册时不做修改
func (r *Router) RegisterService(server NodeID, id ServiceID, ddTolerance, lOverhead float64) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.engine.RegisterService(server, id, ddTolerance, lOverhead)
}

// RegisterDefault 使用默认 DDTolerance / LOverhead 注册服务
func (r *Router) RegisterDefault(server NodeID, id ServiceID) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.engine.RegisterDefault(server, id)
}

// AddClients 向服务加入客户端并重新均衡
func (r *Router) AddClients(server NodeID, id ServiceID, clients []NodeID) (*AddResult, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	return r.engine.AddClients(server, id, clients)
}

// Paths 返回服务全部成员路径的快照
func (r *Router) Paths(server NodeID, id ServiceID) (map[NodeID]Path, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	return r.engine.Paths(server, id)
}

// UpdatedClients 返回最近一次 AddClients 中路径发生变化的客户端
func (r *Router) UpdatedClients(server NodeID, id ServiceID) ([]NodeID, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	return r.engine.UpdatedClients(server, id)
}

// PathLength 返回客户端当前路径的长度
func (r *Router) PathLength(server NodeID, id ServiceID, client NodeID) (Weight, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	return r.engine.PathLength(server, id, client)
}

// Status 返回服务最近一次均衡的状态
func (r *Router) Status(server NodeID, id ServiceID) (Status, error) {
	if err := r.check(); err != nil {
		return StatusPending, err
	}
	return r.engine.Status(server, id)
}

// Info 返回服务概要
func (r *Router) Info(server NodeID, id ServiceID) (ServiceInfo, error) {
	if err := r.check(); err != nil {
		return ServiceInfo{}, err
	}
	return r.engine.Info(server, id)
}

// Services 返回已注册的服务
func (r *Router) Services() []ServiceKey {
	return r.engine.Services()
}

// SubscribeChanges 订阅路径变化事件
//
// 每次 AddClients 结束后，若有客户端路径变化，订阅方收到一个
// PathsChanged。订阅时若已有事件，首先收到最近一次。
// 缓冲区满时事件被丢弃。Router 关闭后通道关闭。
func (r *Router) SubscribeChanges(buffer int) (*Subscription, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	return r.events.Subscribe(eventbus.BufSize(buffer))
}

// ════════════════════════════════════════════════════════════════════════════
//                              拓扑
// ════════════════════════════════════════════════════════════════════════════

// AddEdge 添加或覆盖一条无向链路，并使最短路径缓存失效
//
// 编辑在引擎写锁内完成，成员路径长度随即按新代价刷新；
// 已分配的路径不会重新计算。
func (r *Router) AddEdge(u, v NodeID, w Weight) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.engine.EditTopology(func() error {
		return r.graph.AddEdge(u, v, w)
	})
}

// Nodes 返回拓扑中的全部节点（已排序）
func (r *Router) Nodes() []NodeID {
	return r.graph.Nodes()
}

// Distance 返回 u 到 v 的最短路径长度
func (r *Router) Distance(u, v NodeID) (Weight, bool) {
	return r.graph.Distance(u, v)
}

// ShortestPath 返回 u 到 v 的最短路径
func (r *Router) ShortestPath(u, v NodeID) (Path, error) {
	return r.graph.ShortestPath(u, v)
}

// CacheStats 返回最短路径缓存统计
func (r *Router) CacheStats() CacheStats {
	return r.graph.CacheStats()
}
