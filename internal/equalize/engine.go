package equalize

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/leqnet/go-leq/internal/util/logger"
	"github.com/leqnet/go-leq/pkg/types"
)

var log = logger.Logger("equalize")

// Topology 引擎使用的只读拓扑视图
//
// *topology.Graph 实现了该接口。
type Topology interface {
	HasNode(u types.NodeID) bool
	EdgeWeight(u, v types.NodeID) (types.Weight, bool)
	Neighbors(u types.NodeID) map[types.NodeID]types.Weight
	Distance(u, v types.NodeID) (types.Weight, bool)
	NextHop(u, v types.NodeID) (types.NodeID, bool)

	// Generation 拓扑代数，任何链路编辑后改变
	Generation() uint64
}

// ============================================================================
//                              Engine
// ============================================================================

// Engine 延迟均衡路由引擎
type Engine struct {
	id      string
	topo    Topology
	cfg     *Config
	metrics *Metrics
	events  *EventBus
	clock   clock.Clock

	mu       sync.RWMutex
	services map[types.ServiceKey]*service
}

// EngineOption 引擎选项
type EngineOption func(*Engine)

// WithMetrics 设置指标收集器
func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock 设置时钟（测试使用 clock.NewMock）
func WithClock(c clock.Clock) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// NewEngine 创建引擎
//
// cfg 为 nil 时使用 DefaultConfig。
func NewEngine(topo Topology, cfg *Config, opts ...EngineOption) (*Engine, error) {
	if topo == nil {
		return nil, ErrNilTopology
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		id:       uuid.NewString(),
		topo:     topo,
		cfg:      cfg,
		clock:    clock.New(),
		services: make(map[types.ServiceKey]*service),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ID 返回引擎实例 ID
func (e *Engine) ID() string {
	return e.id
}

// ============================================================================
//                              服务注册
// ============================================================================

// RegisterService 注册服务
//
// 服务已存在时不做任何修改。
func (e *Engine) RegisterService(server types.NodeID, id types.ServiceID, ddTolerance, lOverhead float64) error {
	if err := validateTolerance(ddTolerance); err != nil {
		return fmt.Errorf("%w: %v", err, ddTolerance)
	}
	if err := validateOverhead(lOverhead); err != nil {
		return fmt.Errorf("%w: %v", err, lOverhead)
	}
	if !e.topo.HasNode(server) {
		return fmt.Errorf("%w: server %d", ErrNodeNotFound, server)
	}

	key := types.NewServiceKey(server, id)

	e.mu.Lock()
	defer e.mu.Unlock()

	if svc, ok := e.services[key]; ok {
		if svc.ddTolerance != ddTolerance || svc.lOverhead != lOverhead {
			log.Debug("服务已注册，忽略新参数",
				"service", key.String(),
				"ddTolerance", svc.ddTolerance,
				"lOverhead", svc.lOverhead)
		}
		return nil
	}

	e.services[key] = newService(key, ddTolerance, lOverhead)
	e.metrics.RecordRegistered()

	log.Info("注册服务",
		"engine", e.id,
		"service", key.String(),
		"ddTolerance", ddTolerance,
		"lOverhead", lOverhead)
	return nil
}

// RegisterDefault 使用配置中的默认参数注册服务
func (e *Engine) RegisterDefault(server types.NodeID, id types.ServiceID) error {
	return e.RegisterService(server, id, e.cfg.DefaultDDTolerance, e.cfg.DefaultLOverhead)
}

// ============================================================================
//                              添加客户端
// ============================================================================

// AddResult AddClients 的结果
type AddResult struct {
	// Added 本次新加入的客户端（按提交顺序）
	Added []types.NodeID

	// Changed 本次调用结束时路径发生变化的客户端（已排序）
	Changed []types.NodeID

	// Rejected 被拒绝的客户端及原因
	Rejected map[types.NodeID]error

	// Status 服务当前的均衡状态
	Status Status

	// Rounds 本次均衡执行的轮数
	Rounds int
}

// Err 合并所有拒绝原因；没有拒绝时返回 nil
func (r *AddResult) Err() error {
	var err error
	for _, n := range slices.Sorted(maps.Keys(r.Rejected)) {
		err = multierr.Append(err, fmt.Errorf("client %d: %w", n, r.Rejected[n]))
	}
	return err
}

// AddClients 向服务加入客户端并重新均衡
//
// 已是成员的客户端被忽略。不在拓扑中或无法到达服务器的客户端被拒绝，
// 不影响其余客户端。至少加入一个新成员时执行均衡。
func (e *Engine) AddClients(server types.NodeID, id types.ServiceID, clients []types.NodeID) (*AddResult, error) {
	key := types.NewServiceKey(server, id)

	e.mu.Lock()
	defer e.mu.Unlock()

	svc, ok := e.services[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, key)
	}

	svc.changed = make(map[types.NodeID]struct{})
	svc.refreshLengths(e.topo)
	result := &AddResult{Rejected: make(map[types.NodeID]error)}

	for _, c := range clients {
		if svc.isMember(c) {
			continue
		}
		path, length, err := e.initialPath(c, server)
		if err != nil {
			result.Rejected[c] = err
			e.metrics.RecordRejected(err)
			log.Debug("拒绝客户端",
				"service", key.String(),
				"client", int64(c),
				"err", err)
			continue
		}

		svc.setPath(c, path, length)
		svc.changed[c] = struct{}{}
		svc.maxLatency = max(svc.maxLatency, svc.lOverhead*float64(length))
		result.Added = append(result.Added, c)
	}
	e.metrics.RecordAdded(len(result.Added))

	if len(result.Added) > 0 {
		out := e.equalize(svc)
		svc.status = out.status
		result.Rounds = out.rounds
		e.metrics.RecordOutcome(out.status, out.rounds)

		for n, prev := range out.previous {
			if !prev.Equal(svc.paths[n]) {
				svc.changed[n] = struct{}{}
			}
		}

		if !out.status.Converged() {
			log.Warn("均衡未收敛",
				"service", key.String(),
				"status", out.status.String(),
				"rounds", out.rounds,
				"spread", svc.spread(),
				"maxMDD", svc.maxMDD())
		} else {
			log.Debug("均衡完成",
				"service", key.String(),
				"status", out.status.String(),
				"rounds", out.rounds,
				"spread", svc.spread(),
				"maxMDD", svc.maxMDD())
		}
	}

	result.Changed = svc.changedList()
	result.Status = svc.status
	e.metrics.RecordChanges(len(result.Changed))
	e.publish(svc, result.Changed)
	return result, nil
}

// initialPath 沿缓存的下一跳构建 client 到 server 的最短路径
func (e *Engine) initialPath(client, server types.NodeID) (types.Path, types.Weight, error) {
	if !e.topo.HasNode(client) {
		return nil, 0, fmt.Errorf("%w: %d", ErrNodeNotFound, client)
	}

	path := types.Path{client}
	seen := map[types.NodeID]struct{}{client: {}}
	var length types.Weight
	for cur := client; cur != server; {
		next, ok := e.topo.NextHop(cur, server)
		if !ok {
			return nil, 0, fmt.Errorf("%w: %d -> %d", ErrUnreachable, client, server)
		}
		if _, dup := seen[next]; dup {
			return nil, 0, fmt.Errorf("%w: next-hop loop at %d", ErrUnreachable, next)
		}
		w, ok := e.topo.EdgeWeight(cur, next)
		if !ok {
			return nil, 0, fmt.Errorf("%w: missing edge %d-%d", ErrUnreachable, cur, next)
		}
		seen[next] = struct{}{}
		path = append(path, next)
		length += w
		cur = next
	}
	return path, length, nil
}

// ============================================================================
//                              均衡循环
// ============================================================================

// outcome 一次均衡的结果
type outcome struct {
	status Status
	rounds int

	// previous 被替换成员在本次均衡前的路径
	previous map[types.NodeID]types.Path
}

// equalize 反复把最短成员换到更长的路径上，直到收敛或无法改进
func (e *Engine) equalize(svc *service) outcome {
	out := outcome{previous: make(map[types.NodeID]types.Path)}
	s := &searcher{
		topo:          e.topo,
		clock:         e.clock,
		maxExpansions: e.cfg.MaxExpansions,
		timeout:       e.cfg.SearchTimeout,
	}

	for {
		maxMDD := svc.maxMDD()
		minNode, minLen, _, maxLen := svc.extremes()
		mdd := maxLen - minLen
		if float64(mdd) <= maxMDD {
			out.status = StatusConverged
			return out
		}
		if e.cfg.MaxRounds > 0 && out.rounds >= e.cfg.MaxRounds {
			out.status = StatusBudgetExhausted
			return out
		}
		out.rounds++

		res := s.search(searchRequest{
			source: minNode,
			dest:   svc.key.Server,
			target: maxLen,
			cutoff: minCutoff(svc.maxLatency, maxLen, mdd),
			accept: maxMDD,
			bound:  mdd,
		})
		e.metrics.RecordSearch(res.expansions)

		if res.path == nil {
			if res.exhausted {
				out.status = StatusBudgetExhausted
			} else {
				out.status = StatusNoImprovement
			}
			return out
		}

		if _, ok := out.previous[minNode]; !ok {
			if _, added := svc.changed[minNode]; !added {
				out.previous[minNode] = svc.paths[minNode]
			}
		}
		svc.setPath(minNode, res.path, res.length)
		log.Debug("替换路径",
			"service", svc.key.String(),
			"client", int64(minNode),
			"path", res.path.String(),
			"length", int64(res.length),
			"target", int64(maxLen))
	}
}

// ============================================================================
//                              查询
// ============================================================================

// lookup 查找服务（调用方持有读锁）
func (e *Engine) lookup(server types.NodeID, id types.ServiceID) (*service, error) {
	key := types.NewServiceKey(server, id)
	svc, ok := e.services[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, key)
	}
	return svc, nil
}

// current 查找服务并保证成员长度与当前拓扑一致
//
// 拓扑代数未变时只持有读锁；否则升级为写锁重新计算长度。
// 返回的 unlock 释放实际持有的锁。
func (e *Engine) current(server types.NodeID, id types.ServiceID) (*service, func(), error) {
	e.mu.RLock()
	svc, err := e.lookup(server, id)
	if err != nil {
		e.mu.RUnlock()
		return nil, nil, err
	}
	if !svc.stale(e.topo) {
		return svc, e.mu.RUnlock, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	svc, err = e.lookup(server, id)
	if err != nil {
		e.mu.Unlock()
		return nil, nil, err
	}
	if svc.stale(e.topo) {
		svc.refreshLengths(e.topo)
	}
	return svc, e.mu.Unlock, nil
}

// EditTopology 在引擎写锁内执行拓扑编辑，随后按新链路代价刷新所有成员长度
//
// 编辑不会与均衡搜索交错。已分配的路径不会重新计算。
func (e *Engine) EditTopology(edit func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := edit()
	for _, svc := range e.services {
		if svc.stale(e.topo) {
			svc.refreshLengths(e.topo)
		}
	}
	return err
}

// Paths 返回服务全部成员路径的快照
func (e *Engine) Paths(server types.NodeID, id types.ServiceID) (map[types.NodeID]types.Path, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	svc, err := e.lookup(server, id)
	if err != nil {
		return nil, err
	}
	return svc.snapshot(), nil
}

// UpdatedClients 返回最近一次 AddClients 中路径发生变化的客户端
func (e *Engine) UpdatedClients(server types.NodeID, id types.ServiceID) ([]types.NodeID, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	svc, err := e.lookup(server, id)
	if err != nil {
		return nil, err
	}
	return svc.changedList(), nil
}

// PathLength 返回客户端当前路径的长度
//
// 长度按当前链路代价计算。
func (e *Engine) PathLength(server types.NodeID, id types.ServiceID, client types.NodeID) (types.Weight, error) {
	svc, unlock, err := e.current(server, id)
	if err != nil {
		return 0, err
	}
	defer unlock()

	l, ok := svc.lengths[client]
	if !ok {
		return 0, fmt.Errorf("%w: %d in %s", ErrClientNotFound, client, svc.key)
	}
	return l, nil
}

// Status 返回服务最近一次均衡的状态
func (e *Engine) Status(server types.NodeID, id types.ServiceID) (Status, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	svc, err := e.lookup(server, id)
	if err != nil {
		return StatusPending, err
	}
	return svc.status, nil
}

// ServiceInfo 服务概要
type ServiceInfo struct {
	Key         types.ServiceKey
	DDTolerance float64
	LOverhead   float64
	MaxLatency  float64
	MaxMDD      float64
	Members     int
	Spread      types.Weight
	Status      Status
}

// Info 返回服务概要
func (e *Engine) Info(server types.NodeID, id types.ServiceID) (ServiceInfo, error) {
	svc, unlock, err := e.current(server, id)
	if err != nil {
		return ServiceInfo{}, err
	}
	defer unlock()

	return ServiceInfo{
		Key:         svc.key,
		DDTolerance: svc.ddTolerance,
		LOverhead:   svc.lOverhead,
		MaxLatency:  svc.maxLatency,
		MaxMDD:      svc.maxMDD(),
		Members:     len(svc.paths),
		Spread:      svc.spread(),
		Status:      svc.status,
	}, nil
}

// Services 返回已注册的服务（按服务器、服务 ID 排序）
func (e *Engine) Services() []types.ServiceKey {
	e.mu.RLock()
	defer e.mu.RUnlock()

	keys := make([]types.ServiceKey, 0, len(e.services))
	for k := range e.services {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b types.ServiceKey) int {
		if c := cmp.Compare(a.Server, b.Server); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return keys
}
