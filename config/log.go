package config

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，语法同 LEQ_LOG_LEVEL："equalize=debug,info"
	//
	// 为空时沿用环境变量配置。
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{}
}
