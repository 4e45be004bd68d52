package config

import (
	"errors"
	"math"
)

// EqualizeConfig 均衡引擎配置
type EqualizeConfig struct {
	// DefaultDDTolerance 注册服务时未指定的默认延迟差容忍比例
	DefaultDDTolerance float64 `json:"default_dd_tolerance" yaml:"default_dd_tolerance"`

	// DefaultLOverhead 注册服务时未指定的默认延迟预算系数
	DefaultLOverhead float64 `json:"default_l_overhead" yaml:"default_l_overhead"`

	// MaxRounds 单次 AddClients 内均衡循环的最大轮数（0 = 不限）
	MaxRounds int `json:"max_rounds" yaml:"max_rounds"`

	// MaxExpansions 单次搜索最多弹出的候选路径数（0 = 不限）
	MaxExpansions int `json:"max_expansions" yaml:"max_expansions"`

	// SearchTimeout 单次搜索的时间预算（0 = 不限）
	SearchTimeout Duration `json:"search_timeout" yaml:"search_timeout"`
}

// DefaultEqualizeConfig 返回默认均衡配置
func DefaultEqualizeConfig() EqualizeConfig {
	return EqualizeConfig{
		DefaultDDTolerance: 0.1,       // 允许 10% 的延迟差
		DefaultLOverhead:   1.0,       // 预算等于最长初始路径
		MaxRounds:          1024,      // 每次调用最多 1024 轮
		MaxExpansions:      1_000_000, // 每次搜索最多 100 万个候选
		SearchTimeout:      0,         // 不限时
	}
}

// Validate 验证均衡配置
func (c EqualizeConfig) Validate() error {
	if c.DefaultDDTolerance < 0 || math.IsNaN(c.DefaultDDTolerance) {
		return errors.New("default_dd_tolerance must be non-negative")
	}
	if c.DefaultLOverhead < 0 || math.IsNaN(c.DefaultLOverhead) {
		return errors.New("default_l_overhead must be non-negative")
	}
	if c.MaxRounds < 0 {
		return errors.New("max_rounds must be non-negative")
	}
	if c.MaxExpansions < 0 {
		return errors.New("max_expansions must be non-negative")
	}
	if c.SearchTimeout < 0 {
		return errors.New("search_timeout must be non-negative")
	}
	return nil
}
