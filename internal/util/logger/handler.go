package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// ============================================================================
//                              输出目标
// ============================================================================

// sink 可替换的输出目标
//
// 所有子系统 Handler 共享同一个 sink，SetOutput 替换后已创建的
// Logger 立即写到新目标。
type sink struct {
	w atomic.Pointer[io.Writer]
}

var output = newSink(os.Stderr)

func newSink(w io.Writer) *sink {
	s := &sink{}
	s.set(w)
	return s
}

func (s *sink) set(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	s.w.Store(&w)
}

func (s *sink) Write(p []byte) (int, error) {
	return (*s.w.Load()).Write(p)
}

// ============================================================================
//                              子系统 Handler
// ============================================================================

// levelNames 输出中使用的级别名称
var levelNames = map[slog.Level]string{
	slog.LevelDebug: "debug",
	slog.LevelInfo:  "info",
	slog.LevelWarn:  "warn",
	slog.LevelError: "error",
}

// levelName 返回级别名称；非标准级别按最接近的较低标准级别输出
func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return levelNames[slog.LevelError]
	case l >= slog.LevelWarn:
		return levelNames[slog.LevelWarn]
	case l >= slog.LevelInfo:
		return levelNames[slog.LevelInfo]
	default:
		return levelNames[slog.LevelDebug]
	}
}

// renameAttr 时间键改为 ts，级别输出为小写名称
func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		if l, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(levelName(l))
		}
	}
	return a
}

// subsystemHandler 带子系统级别的 slog.Handler
//
// 派生出的 Handler 共享 level，SetLevel 对 Logger.With 的结果同样生效。
type subsystemHandler struct {
	level *slog.LevelVar
	next  slog.Handler
}

// newHandler 为子系统创建 Handler
func newHandler(subsystem string, level slog.Level, format LogFormat) *subsystemHandler {
	lv := new(slog.LevelVar)
	lv.Set(level)

	opts := &slog.HandlerOptions{
		Level:       lv,
		AddSource:   ConfigFromEnv().AddSource,
		ReplaceAttr: renameAttr,
	}

	var next slog.Handler = slog.NewTextHandler(output, opts)
	if format == FormatJSON {
		next = slog.NewJSONHandler(output, opts)
	}

	return &subsystemHandler{
		level: lv,
		next:  next.WithAttrs([]slog.Attr{slog.String("subsystem", subsystem)}),
	}
}

func (h *subsystemHandler) derive(next slog.Handler) *subsystemHandler {
	return &subsystemHandler{level: h.level, next: next}
}

func (h *subsystemHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *subsystemHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.next.Handle(ctx, r)
}

func (h *subsystemHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(h.next.WithAttrs(attrs))
}

func (h *subsystemHandler) WithGroup(name string) slog.Handler {
	return h.derive(h.next.WithGroup(name))
}

// SetLevel 调整级别
func (h *subsystemHandler) SetLevel(l slog.Level) {
	h.level.Set(l)
}

// ============================================================================
//                              丢弃 Handler
// ============================================================================

// DiscardHandler 返回丢弃所有记录的 Handler
func DiscardHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1 << 30)})
}
