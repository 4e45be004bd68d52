package leq

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/leqnet/go-leq/config"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 基础配置
	config     *config.Config
	configFile string
	preset     string

	// 拓扑配置
	topology struct {
		source    string
		edges     []config.EdgeConfig
		cacheSize int
	}

	// 均衡配置
	equalize struct {
		ddTolerance   *float64
		lOverhead     *float64
		maxRounds     *int
		maxExpansions *int
		searchTimeout *time.Duration
	}

	// 指标配置
	metrics struct {
		enable     *bool
		namespace  string
		registerer prometheus.Registerer
	}

	// 日志级别（语法同 LEQ_LOG_LEVEL）
	logLevel string

	// 测试时钟
	clock clock.Clock

	// 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{}
}

// toConfig 转换为统一配置
//
// 优先级：WithConfig / WithConfigFile < WithPreset < 单项选项。
func (o *options) toConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case o.config != nil:
		cfg = o.config.Clone()
	case o.configFile != "":
		loaded, err := config.LoadFile(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		cfg = config.NewConfig()
	}

	if err := config.ApplyPreset(cfg, o.preset); err != nil {
		return nil, err
	}

	// 覆盖: 拓扑
	if o.topology.source != "" {
		cfg.Topology.Source = o.topology.source
		cfg.Topology.Edges = nil
	}
	if len(o.topology.edges) > 0 {
		cfg.Topology.Edges = o.topology.edges
	}
	if o.topology.cacheSize > 0 {
		cfg.Topology.CacheSize = o.topology.cacheSize
	}

	// 覆盖: 均衡
	if o.equalize.ddTolerance != nil {
		cfg.Equalize.DefaultDDTolerance = *o.equalize.ddTolerance
	}
	if o.equalize.lOverhead != nil {
		cfg.Equalize.DefaultLOverhead = *o.equalize.lOverhead
	}
	if o.equalize.maxRounds != nil {
		cfg.Equalize.MaxRounds = *o.equalize.maxRounds
	}
	if o.equalize.maxExpansions != nil {
		cfg.Equalize.MaxExpansions = *o.equalize.maxExpansions
	}
	if o.equalize.searchTimeout != nil {
		cfg.Equalize.SearchTimeout = config.Duration(*o.equalize.searchTimeout)
	}

	// 覆盖: 指标
	if o.metrics.enable != nil {
		cfg.Metrics.Enable = *o.metrics.enable
	}
	if o.metrics.namespace != "" {
		cfg.Metrics.Namespace = o.metrics.namespace
	}

	// 覆盖: 日志
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	return cfg, nil
}

// ============================================================================
//                              配置来源选项
// ============================================================================

// WithConfig 使用给定的统一配置作为基础
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("配置不能为空")
		}
		o.config = cfg
		return nil
	}
}

// WithConfigFile 从 JSON 或 YAML 文件加载基础配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		if path == "" {
			return errors.New("配置文件路径不能为空")
		}
		o.configFile = path
		return nil
	}
}

// WithPreset 应用预设（default / strict / relaxed / bounded）
func WithPreset(name string) Option {
	return func(o *options) error {
		if err := config.ApplyPreset(config.NewConfig(), name); err != nil {
			return err
		}
		o.preset = name
		return nil
	}
}

// ============================================================================
//                              拓扑选项
// ============================================================================

// WithTopologySource 设置拓扑来源："sample"、"abilene" 或 RocketFuel 文件路径
func WithTopologySource(source string) Option {
	return func(o *options) error {
		if source == "" {
			return errors.New("拓扑来源不能为空")
		}
		o.topology.source = source
		return nil
	}
}

// WithEdges 使用内联链路构建拓扑
func WithEdges(edges ...config.EdgeConfig) Option {
	return func(o *options) error {
		if len(edges) == 0 {
			return errors.New("链路列表不能为空")
		}
		o.topology.edges = append(o.topology.edges, edges...)
		return nil
	}
}

// WithCacheSize 设置最短路径缓存容量（目的地数量）
func WithCacheSize(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("缓存容量必须为正数: %d", n)
		}
		o.topology.cacheSize = n
		return nil
	}
}

// ============================================================================
//                              均衡选项
// ============================================================================

// WithDefaultTolerance 设置 RegisterDefault 使用的 DDTolerance
func WithDefaultTolerance(v float64) Option {
	return func(o *options) error {
		o.equalize.ddTolerance = &v
		return nil
	}
}

// WithDefaultOverhead 设置 RegisterDefault 使用的 LOverhead
func WithDefaultOverhead(v float64) Option {
	return func(o *options) error {
		o.equalize.lOverhead = &v
		return nil
	}
}

// WithMaxRounds 设置单次 AddClients 的最大均衡轮数（0 = 不限）
func WithMaxRounds(n int) Option {
	return func(o *options) error {
		o.equalize.maxRounds = &n
		return nil
	}
}

// WithMaxExpansions 设置单次搜索的最大扩展数（0 = 不限）
func WithMaxExpansions(n int) Option {
	return func(o *options) error {
		o.equalize.maxExpansions = &n
		return nil
	}
}

// WithSearchTimeout 设置单次搜索的时间预算（0 = 不限）
func WithSearchTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.equalize.searchTimeout = &d
		return nil
	}
}

// WithClock 设置引擎使用的时钟
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("时钟不能为空")
		}
		o.clock = c
		return nil
	}
}

// ============================================================================
//                              指标与日志选项
// ============================================================================

// WithMetrics 启用或禁用 Prometheus 指标
func WithMetrics(enable bool) Option {
	return func(o *options) error {
		o.metrics.enable = &enable
		return nil
	}
}

// WithMetricsNamespace 设置指标命名空间
func WithMetricsNamespace(ns string) Option {
	return func(o *options) error {
		if ns == "" {
			return errors.New("指标命名空间不能为空")
		}
		o.metrics.namespace = ns
		return nil
	}
}

// WithRegisterer 设置指标注册目标
//
// 未设置时指标注册到 Router 私有的 registry。
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		if reg == nil {
			return errors.New("registerer 不能为空")
		}
		o.metrics.registerer = reg
		return nil
	}
}

// WithLogLevel 设置日志级别，如 "debug" 或 "equalize=debug,info"
func WithLogLevel(spec string) Option {
	return func(o *options) error {
		o.logLevel = spec
		return nil
	}
}

// ============================================================================
//                              扩展选项
// ============================================================================

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
