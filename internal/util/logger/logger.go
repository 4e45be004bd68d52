// Package logger 提供 go-leq 的统一日志系统
//
// 基于标准库 log/slog，支持：
//   - 按子系统配置日志级别
//   - 环境变量配置（LEQ_LOG_LEVEL, LEQ_LOG_FORMAT）
//   - 结构化日志
//
// 使用示例:
//
//	package equalize
//
//	import "github.com/leqnet/go-leq/internal/util/logger"
//
//	var log = logger.Logger("equalize")
//
//	func foo() {
//	    log.Info("service registered", "service", key, "tolerance", tol)
//	    log.Warn("equalization did not converge", "mdd", mdd, "max_mdd", maxMDD)
//	}
//
// 环境变量配置:
//
//	# 设置所有模块为 info，equalize 模块为 debug
//	LEQ_LOG_LEVEL=equalize=debug,info
//
//	# 使用 JSON 格式输出
//	LEQ_LOG_FORMAT=json
package logger

import (
	"io"
	"log/slog"
	"sync"
)

var (
	// loggers 缓存各子系统的 Logger
	loggers sync.Map // map[string]*slog.Logger

	// handlers 缓存各子系统的 Handler（用于动态调整级别）
	handlers sync.Map // map[string]*subsystemHandler

	// globalLogger 全局默认 Logger
	globalLogger     *slog.Logger
	globalLoggerOnce sync.Once
)

// Logger 获取指定子系统的 Logger
//
// Logger 会根据 LEQ_LOG_LEVEL 环境变量配置日志级别。
// 同一子系统多次调用会返回相同的 Logger 实例。
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := ConfigFromEnv()
	level := cfg.LevelForSubsystem(subsystem)

	handler := newHandler(subsystem, level, cfg.Format)
	logger := slog.New(handler)

	actual, loaded := loggers.LoadOrStore(subsystem, logger)
	if !loaded {
		handlers.Store(subsystem, handler)
	}

	return actual.(*slog.Logger)
}

// GlobalLogger 返回全局 Logger
//
// 用于不属于特定子系统的日志，或作为 fx 注入的默认 Logger。
func GlobalLogger() *slog.Logger {
	globalLoggerOnce.Do(func() {
		globalLogger = Logger("leq")
	})
	return globalLogger
}

// SetLevel 动态设置子系统的日志级别
//
// 示例:
//
//	logger.SetLevel("equalize", slog.LevelDebug)
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).SetLevel(level)
	}
}

// SetGlobalLevel 设置所有已创建子系统的日志级别
func SetGlobalLevel(level slog.Level) {
	handlers.Range(func(_, value any) bool {
		value.(*subsystemHandler).SetLevel(level)
		return true
	})
}

// unsetLevel 标记级别字符串中没有默认级别项
const unsetLevel slog.Level = -100

// ApplyLevelSpec 按 LEQ_LOG_LEVEL 同样的语法在运行时调整级别
//
// 未指定子系统的项作用于所有已创建的子系统；之后新建的子系统仍使用环境变量配置。
// 返回无法识别的项数。
func ApplyLevelSpec(spec string) int {
	cfg := &Config{SubsystemLevels: make(map[string]slog.Level), DefaultLevel: unsetLevel}
	bad := parseLevelConfig(cfg, spec)

	if cfg.DefaultLevel != unsetLevel {
		SetGlobalLevel(cfg.DefaultLevel)
	}
	for subsystem, level := range cfg.SubsystemLevels {
		// 确保子系统存在，以便后续获取到的 Logger 使用新级别
		Logger(subsystem)
		SetLevel(subsystem, level)
	}
	return bad
}

// Discard 返回一个丢弃所有日志的 Logger
//
// 主要用于测试，避免日志输出干扰测试结果。
func Discard() *slog.Logger {
	return slog.New(DiscardHandler())
}

// With 创建带有预设属性的 Logger
//
// 示例:
//
//	log := logger.With("equalize", "service", key)
//	log.Info("clients added")  // 自动包含 service 属性
func With(subsystem string, args ...any) *slog.Logger {
	return Logger(subsystem).With(args...)
}

// SetOutput 设置全局日志输出目标
//
// 已创建的 Logger 切换后立即生效；nil 表示丢弃输出。
func SetOutput(w io.Writer) {
	output.set(w)
}
