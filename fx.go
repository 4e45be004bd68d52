package leq

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/leqnet/go-leq/config"
	"github.com/leqnet/go-leq/internal/equalize"
	"github.com/leqnet/go-leq/internal/topology"
	"github.com/leqnet/go-leq/internal/util/logger"
)

var fxLogger = logger.Logger("leq/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置注入
//  2. Topology: Graph
//  3. Equalize: Metrics → Engine
//  4. 用户扩展
//  5. Router 组件注入
func buildFxApp(cfg *config.Config, o *options, r *Router) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证与注入
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(cfg),
	}

	if cfg.Metrics.Enable {
		reg := o.metrics.registerer
		if reg == nil {
			reg = r.registry
		}
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}
	if o.clock != nil {
		c := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return c }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 拓扑与均衡引擎
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		topology.Module,
		equalize.Module,
	)

	// ════════════════════════════════════════════════════════════════════════
	// 3. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
		fxLogger.Debug("加载用户 Fx 选项", "count", len(o.userFxOptions))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 4. Router 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.Populate(&r.graph, &r.engine, &r.events))

	// ════════════════════════════════════════════════════════════════════════
	// 5. Fx 配置
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}
