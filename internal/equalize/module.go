package equalize

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/leqnet/go-leq/config"
	"github.com/leqnet/go-leq/internal/topology"
)

// ============================================================================
//
//	Fx 模块定义
//
// ============================================================================

// Module Equalize Fx 模块
var Module = fx.Module("equalize",
	fx.Provide(
		NewMetricsFromParams,
		NewEventBus,
		NewEngineFromParams,
	),
	fx.Invoke(registerLifecycle),
)

// MetricsParams 指标依赖参数
type MetricsParams struct {
	fx.In

	UnifiedCfg *config.Config       `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// NewMetricsFromParams 从 Fx 参数创建指标
//
// 指标关闭时返回 nil；未提供 Registerer 时注册到私有 registry。
func NewMetricsFromParams(p MetricsParams) *Metrics {
	cfg := config.DefaultMetricsConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Metrics
	}
	if !cfg.Enable {
		return nil
	}
	reg := p.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return NewMetricsWithRegistry(cfg.Namespace, reg)
}

// EngineParams Engine 依赖参数
type EngineParams struct {
	fx.In

	Graph      *topology.Graph
	Metrics    *Metrics       `optional:"true"`
	Events     *EventBus      `optional:"true"`
	UnifiedCfg *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
}

// EngineResult Engine 导出结果
type EngineResult struct {
	fx.Out

	Engine *Engine
}

// NewEngineFromParams 从 Fx 参数创建 Engine
func NewEngineFromParams(p EngineParams) (EngineResult, error) {
	cfg := DefaultConfig()
	if p.UnifiedCfg != nil {
		cfg = ConfigFromUnified(p.UnifiedCfg.Equalize)
	}

	e, err := NewEngine(p.Graph, cfg,
		WithMetrics(p.Metrics),
		WithEvents(p.Events),
		WithClock(p.Clock))
	if err != nil {
		return EngineResult{}, err
	}
	return EngineResult{Engine: e}, nil
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(lc fx.Lifecycle, e *Engine, bus *EventBus) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			log.Info("均衡引擎启动",
				"engine", e.ID(),
				"maxRounds", e.cfg.MaxRounds,
				"maxExpansions", e.cfg.MaxExpansions,
				"searchTimeout", e.cfg.SearchTimeout)
			return nil
		},
		OnStop: func(_ context.Context) error {
			log.Info("均衡引擎停止",
				"engine", e.ID(),
				"services", len(e.Services()),
				"events", bus.Emitted(),
				"dropped", bus.Dropped())
			return bus.Close()
		},
	})
}
