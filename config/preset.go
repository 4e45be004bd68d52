package config

import (
	"errors"
	"fmt"
	"time"
)

// 预设名称
const (
	// PresetDefault 默认参数
	PresetDefault = "default"

	// PresetStrict 更小的延迟差容忍度，更多的均衡轮数
	PresetStrict = "strict"

	// PresetRelaxed 更大的延迟差容忍度
	PresetRelaxed = "relaxed"

	// PresetBounded 限制单次搜索的扩展数与耗时，适合大拓扑
	PresetBounded = "bounded"
)

// ApplyPreset 应用预设配置
//
// 预设只修改 Equalize 配置，其余配置保持不变。
//
// 支持的预设：
//   - "default": 默认参数
//   - "strict": 5% 容忍度
//   - "relaxed": 25% 容忍度
//   - "bounded": 每次搜索 10 万个候选、1 秒
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case PresetDefault:
		cfg.Equalize = DefaultEqualizeConfig()
	case PresetStrict:
		applyStrictPreset(cfg)
	case PresetRelaxed:
		applyRelaxedPreset(cfg)
	case PresetBounded:
		applyBoundedPreset(cfg)
	case "":
		// 空预设，不做任何操作
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
	return nil
}

// PresetNames 返回全部预设名称
func PresetNames() []string {
	return []string{PresetDefault, PresetStrict, PresetRelaxed, PresetBounded}
}

func applyStrictPreset(cfg *Config) {
	cfg.Equalize.DefaultDDTolerance = 0.05
	cfg.Equalize.MaxRounds = 4096
}

func applyRelaxedPreset(cfg *Config) {
	cfg.Equalize.DefaultDDTolerance = 0.25
	cfg.Equalize.MaxRounds = 256
}

func applyBoundedPreset(cfg *Config) {
	cfg.Equalize.MaxRounds = 256
	cfg.Equalize.MaxExpansions = 100_000
	cfg.Equalize.SearchTimeout = Duration(time.Second)
}
