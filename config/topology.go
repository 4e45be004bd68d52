package config

import (
	"errors"
	"fmt"
)

// TopologyConfig 拓扑配置
type TopologyConfig struct {
	// Source 拓扑来源："sample"、"abilene" 或 RocketFuel 文件路径
	//
	// Edges 非空时忽略 Source。
	Source string `json:"source" yaml:"source"`

	// Edges 内联链路列表
	Edges []EdgeConfig `json:"edges,omitempty" yaml:"edges,omitempty"`

	// CacheSize 最多缓存的目的地最短路径表数量
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}

// EdgeConfig 一条无向链路
type EdgeConfig struct {
	A      int64 `json:"a" yaml:"a"`
	B      int64 `json:"b" yaml:"b"`
	Weight int64 `json:"weight" yaml:"weight"`
}

// DefaultTopologyConfig 返回默认拓扑配置
func DefaultTopologyConfig() TopologyConfig {
	return TopologyConfig{
		Source:    "sample", // 内置 8 节点示例拓扑
		CacheSize: 1024,     // 缓存 1024 个目的地
	}
}

// Validate 验证拓扑配置
func (c TopologyConfig) Validate() error {
	if c.CacheSize <= 0 {
		return errors.New("cache_size must be positive")
	}
	if len(c.Edges) == 0 && c.Source == "" {
		return errors.New("either source or edges must be set")
	}
	for i, e := range c.Edges {
		if e.Weight < 0 {
			return fmt.Errorf("edge %d: negative weight %d", i, e.Weight)
		}
		if e.A == e.B {
			return fmt.Errorf("edge %d: self loop on %d", i, e.A)
		}
	}
	return nil
}
