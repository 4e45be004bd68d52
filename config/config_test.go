package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig 测试创建默认配置
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "sample", cfg.Topology.Source)
	assert.Equal(t, 1024, cfg.Topology.CacheSize)
	assert.Equal(t, 0.1, cfg.Equalize.DefaultDDTolerance)
	assert.Equal(t, 1.0, cfg.Equalize.DefaultLOverhead)
	assert.Equal(t, "leq", cfg.Metrics.Namespace)

	t.Log("✅ NewConfig 测试通过")
}

// TestConfig_ValidateErrors 测试各子配置的验证
func TestConfig_ValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero cache", func(c *Config) { c.Topology.CacheSize = 0 }},
		{"no source", func(c *Config) { c.Topology.Source = "" }},
		{"negative edge", func(c *Config) { c.Topology.Edges = []EdgeConfig{{A: 1, B: 2, Weight: -1}} }},
		{"self loop", func(c *Config) { c.Topology.Edges = []EdgeConfig{{A: 1, B: 1, Weight: 1}} }},
		{"negative tolerance", func(c *Config) { c.Equalize.DefaultDDTolerance = -0.1 }},
		{"negative overhead", func(c *Config) { c.Equalize.DefaultLOverhead = -1 }},
		{"negative rounds", func(c *Config) { c.Equalize.MaxRounds = -1 }},
		{"negative expansions", func(c *Config) { c.Equalize.MaxExpansions = -1 }},
		{"negative timeout", func(c *Config) { c.Equalize.SearchTimeout = Duration(-time.Second) }},
		{"metrics without namespace", func(c *Config) { c.Metrics.Namespace = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.Error(t, ValidateAll(nil))
	assert.Panics(t, func() { MustValidate(nil) })
}

// TestFromJSON 测试 JSON 加载
func TestFromJSON(t *testing.T) {
	data := []byte(`{
	  "topology": {"source": "abilene", "cache_size": 64},
	  "equalize": {"max_rounds": 16, "search_timeout": "250ms"}
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, "abilene", cfg.Topology.Source)
	assert.Equal(t, 64, cfg.Topology.CacheSize)
	assert.Equal(t, 16, cfg.Equalize.MaxRounds)
	assert.Equal(t, 250*time.Millisecond, cfg.Equalize.SearchTimeout.Duration())
	// 未出现的字段保留默认值
	assert.Equal(t, 0.1, cfg.Equalize.DefaultDDTolerance)

	_, err = FromJSON([]byte(`{"equalize": {"search_timeout": "soon"}}`))
	assert.Error(t, err)
}

// TestFromYAML 测试 YAML 加载
func TestFromYAML(t *testing.T) {
	data := []byte(`
topology:
  edges:
    - {a: 1, b: 2, weight: 3}
    - {a: 2, b: 3, weight: 4}
equalize:
  default_dd_tolerance: 0.25
  search_timeout: 1s
metrics:
  enable: false
log:
  level: equalize=debug,info
`)

	cfg, err := FromYAML(data)
	require.NoError(t, err)

	require.Len(t, cfg.Topology.Edges, 2)
	assert.Equal(t, EdgeConfig{A: 2, B: 3, Weight: 4}, cfg.Topology.Edges[1])
	assert.Equal(t, 0.25, cfg.Equalize.DefaultDDTolerance)
	assert.Equal(t, time.Second, cfg.Equalize.SearchTimeout.Duration())
	assert.False(t, cfg.Metrics.Enable)
	assert.Equal(t, "equalize=debug,info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

// TestLoadFile 测试按扩展名加载
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "leq.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("topology:\n  source: abilene\n"), 0o600))
	cfg, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "abilene", cfg.Topology.Source)

	jsonPath := filepath.Join(dir, "leq.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"topology": {"cache_size": 0}}`), 0o600))
	_, err = LoadFile(jsonPath)
	assert.Error(t, err, "invalid config must be rejected")

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

// TestDuration_RoundTrip 测试 Duration 序列化
func TestDuration_RoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Equalize.SearchTimeout = Duration(1500 * time.Millisecond)

	data, err := cfg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"search_timeout": "1.5s"`)

	back, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, cfg.Equalize, back.Equalize)

	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.Duration())
}

// TestConfig_Clone 测试深拷贝
func TestConfig_Clone(t *testing.T) {
	cfg := NewConfig()
	cfg.Topology.Edges = []EdgeConfig{{A: 1, B: 2, Weight: 1}}

	c := cfg.Clone()
	c.Topology.Edges[0].Weight = 9

	assert.Equal(t, int64(1), cfg.Topology.Edges[0].Weight)
}
