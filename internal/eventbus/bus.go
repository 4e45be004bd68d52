package eventbus

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/leqnet/go-leq/internal/util/logger"
)

var log = logger.Logger("eventbus")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrClosed 事件总线已关闭
	ErrClosed = errors.New("eventbus: closed")

	// ErrInvalidBuffer 缓冲区大小无效
	ErrInvalidBuffer = errors.New("eventbus: invalid buffer size")
)

// ============================================================================
// 选项
// ============================================================================

// Option 总线选项
type Option func(*busSettings)

type busSettings struct {
	stateful bool
	name     string
}

// Stateful 保留最后一个事件，发给之后的订阅者
func Stateful() Option {
	return func(s *busSettings) {
		s.stateful = true
	}
}

// WithName 设置日志中使用的总线名称
func WithName(name string) Option {
	return func(s *busSettings) {
		s.name = name
	}
}

// SubscriptionOpt 订阅选项
type SubscriptionOpt func(*subscriptionSettings)

type subscriptionSettings struct {
	buffer int
}

// BufSize 设置订阅缓冲区大小（默认 16）
func BufSize(n int) SubscriptionOpt {
	return func(s *subscriptionSettings) {
		s.buffer = n
	}
}

// ============================================================================
// Bus 实现
// ============================================================================

// Bus 单一事件类型的事件总线
type Bus[T any] struct {
	mu       sync.Mutex
	name     string
	sinks    []*Subscription[T]
	keepLast bool
	last     *T
	closed   bool

	emitted   atomic.Int64
	dropCount atomic.Int64
}

// NewBus 创建事件总线
func NewBus[T any](opts ...Option) *Bus[T] {
	s := &busSettings{}
	for _, opt := range opts {
		opt(s)
	}
	return &Bus[T]{
		name:     s.name,
		keepLast: s.stateful,
	}
}

// Subscribe 订阅事件
func (b *Bus[T]) Subscribe(opts ...SubscriptionOpt) (*Subscription[T], error) {
	settings := &subscriptionSettings{
		buffer: 16, // 默认缓冲区大小
	}
	for _, opt := range opts {
		opt(settings)
	}
	if settings.buffer <= 0 {
		return nil, ErrInvalidBuffer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &Subscription[T]{
		bus: b,
		out: make(chan T, settings.buffer),
	}
	b.sinks = append(b.sinks, sub)

	if b.keepLast && b.last != nil {
		sub.out <- *b.last
	}
	return sub, nil
}

// Emit 发射事件到所有订阅者
func (b *Bus[T]) Emit(event T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.emitted.Add(1)

	if b.keepLast {
		b.last = &event
	}

	for _, sub := range b.sinks {
		select {
		case sub.out <- event:
		default:
			dropped := b.dropCount.Add(1)

			// 每丢弃 100 个事件警告一次，避免日志泛滥
			if dropped%100 == 1 {
				log.Warn("慢消费者检测",
					"bus", b.name,
					"dropped", dropped,
					"reason", "subscriber buffer full")
			}
		}
	}
	return nil
}

// Close 关闭总线及全部订阅
func (b *Bus[T]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, sub := range b.sinks {
		sub.closeChan()
	}
	b.sinks = nil
	return nil
}

// Subscribers 返回当前订阅者数量
func (b *Bus[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sinks)
}

// Emitted 返回已发射的事件数
func (b *Bus[T]) Emitted() int64 {
	return b.emitted.Load()
}

// Dropped 返回因缓冲区满丢弃的事件数
func (b *Bus[T]) Dropped() int64 {
	return b.dropCount.Load()
}

// removeSub 移除订阅
func (b *Bus[T]) removeSub(sub *Subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.sinks {
		if s == sub {
			b.sinks = append(b.sinks[:i], b.sinks[i+1:]...)
			sub.closeChan()
			return
		}
	}
}

// ============================================================================
// Subscription 实现
// ============================================================================

// Subscription 订阅
type Subscription[T any] struct {
	bus       *Bus[T]
	out       chan T
	closeOnce sync.Once
}

// Out 返回事件通道；订阅或总线关闭后通道关闭
func (s *Subscription[T]) Out() <-chan T {
	return s.out
}

// Close 取消订阅
//
// 可以多次调用。
func (s *Subscription[T]) Close() error {
	s.bus.removeSub(s)
	return nil
}

// closeChan 关闭事件通道（调用方持有总线锁）
func (s *Subscription[T]) closeChan() {
	s.closeOnce.Do(func() {
		close(s.out)
	})
}
