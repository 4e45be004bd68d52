package topology

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/leqnet/go-leq/config"
	"github.com/leqnet/go-leq/pkg/types"
)

// ============================================================================
//
//	Fx 模块定义
//
// ============================================================================

// Module Topology Fx 模块
var Module = fx.Module("topology",
	fx.Provide(NewGraphFromParams),
	fx.Invoke(registerLifecycle),
)

// GraphParams Graph 依赖参数
type GraphParams struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// GraphResult Graph 导出结果
type GraphResult struct {
	fx.Out

	Graph *Graph
}

// NewGraphFromParams 从 Fx 参数创建 Graph
func NewGraphFromParams(p GraphParams) (GraphResult, error) {
	cfg := p.UnifiedCfg
	if cfg == nil {
		cfg = config.NewConfig()
	}

	g, err := FromConfig(cfg.Topology)
	if err != nil {
		return GraphResult{}, err
	}
	return GraphResult{Graph: g}, nil
}

// FromConfig 按拓扑配置构建 Graph
//
// 内联链路优先于 Source。
func FromConfig(cfg config.TopologyConfig) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("topology config: %w", err)
	}

	opts := []Option{WithCacheSize(cfg.CacheSize)}
	if len(cfg.Edges) == 0 {
		return FromSource(cfg.Source, opts...)
	}

	g := New(opts...)
	for _, e := range cfg.Edges {
		if err := g.AddEdge(types.NodeID(e.A), types.NodeID(e.B), types.Weight(e.Weight)); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(lc fx.Lifecycle, g *Graph) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			log.Info("拓扑就绪",
				"nodes", g.NodeCount(),
				"edges", g.EdgeCount())
			return nil
		},
		OnStop: func(_ context.Context) error {
			stats := g.CacheStats()
			log.Debug("拓扑缓存统计",
				"tables", stats.Tables,
				"hits", stats.Hits,
				"misses", stats.Misses,
				"builds", stats.Builds)
			return nil
		},
	})
}
