package equalize

import (
	"errors"
	"math"
	"time"

	"github.com/leqnet/go-leq/config"
)

// Config 均衡引擎配置
type Config struct {
	// DefaultDDTolerance RegisterDefault 使用的延迟差容忍比例
	DefaultDDTolerance float64

	// DefaultLOverhead RegisterDefault 使用的延迟预算系数
	DefaultLOverhead float64

	// MaxRounds 单次 AddClients 内的最大均衡轮数（0 = 不限）
	MaxRounds int

	// MaxExpansions 单次搜索最多弹出的候选数（0 = 不限）
	MaxExpansions int

	// SearchTimeout 单次搜索的时间预算（0 = 不限）
	SearchTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return ConfigFromUnified(config.DefaultEqualizeConfig())
}

// ConfigFromUnified 从统一配置转换
func ConfigFromUnified(c config.EqualizeConfig) *Config {
	return &Config{
		DefaultDDTolerance: c.DefaultDDTolerance,
		DefaultLOverhead:   c.DefaultLOverhead,
		MaxRounds:          c.MaxRounds,
		MaxExpansions:      c.MaxExpansions,
		SearchTimeout:      c.SearchTimeout.Duration(),
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := validateTolerance(c.DefaultDDTolerance); err != nil {
		return err
	}
	if err := validateOverhead(c.DefaultLOverhead); err != nil {
		return err
	}
	if c.MaxRounds < 0 {
		return errors.New("equalize: max rounds must be non-negative")
	}
	if c.MaxExpansions < 0 {
		return errors.New("equalize: max expansions must be non-negative")
	}
	if c.SearchTimeout < 0 {
		return errors.New("equalize: search timeout must be non-negative")
	}
	return nil
}

func validateTolerance(v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidTolerance
	}
	return nil
}

func validateOverhead(v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidOverhead
	}
	return nil
}
