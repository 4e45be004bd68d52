// Package config 提供统一的配置管理
//
// 本包采用与组件一一对应的子配置：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，带 Default 构造与 Validate
//   - 支持从 JSON 与 YAML 加载
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Topology.Source = "abilene"
//	cfg.Equalize.MaxRounds = 256
//
//	// 从文件加载（按扩展名选择 JSON / YAML）
//	cfg, err := config.LoadFile("leq.yaml")
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是 go-leq 的完整配置结构
//
// 配置按照功能模块组织：
//   - Topology: 拓扑来源与最短路径缓存
//   - Equalize: 均衡引擎默认参数与搜索预算
//   - Metrics: Prometheus 指标
//   - Log: 日志级别
type Config struct {
	// Topology 拓扑配置
	Topology TopologyConfig `json:"topology" yaml:"topology"`

	// Equalize 均衡引擎配置
	Equalize EqualizeConfig `json:"equalize" yaml:"equalize"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Topology: DefaultTopologyConfig(),
		Equalize: DefaultEqualizeConfig(),
		Metrics:  DefaultMetricsConfig(),
		Log:      DefaultLogConfig(),
	}
}

// Validate 验证全部子配置
func (c *Config) Validate() error {
	if err := c.Topology.Validate(); err != nil {
		return fmt.Errorf("topology: %w", err)
	}
	if err := c.Equalize.Validate(); err != nil {
		return fmt.Errorf("equalize: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

// Clone 深拷贝配置
func (c *Config) Clone() *Config {
	out := *c
	out.Topology.Edges = append([]EdgeConfig(nil), c.Topology.Edges...)
	return &out
}

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "topology": {"source": "abilene", "cache_size": 64},
//	  "equalize": {"max_rounds": 256, "search_timeout": "200ms"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// FromYAML 从 YAML 数据创建配置
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ToJSON 序列化为带缩进的 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// LoadFile 从文件加载并验证配置
//
// .yaml / .yml 按 YAML 解析，其余按 JSON 解析。
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = FromYAML(data)
	default:
		cfg, err = FromJSON(data)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
