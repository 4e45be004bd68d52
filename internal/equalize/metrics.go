package equalize

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================================
//                              均衡指标
// ============================================================================

// Metrics 均衡引擎的 Prometheus 指标
//
// nil *Metrics 的所有记录方法都是空操作。
type Metrics struct {
	// ServicesRegistered 注册的服务数
	ServicesRegistered prometheus.Counter

	// ClientsAdded 加入服务的客户端数
	ClientsAdded prometheus.Counter

	// ClientsRejected 被拒绝的客户端数
	// Labels: reason (unknown_node, unreachable, other)
	ClientsRejected *prometheus.CounterVec

	// PathChanges AddClients 结束时路径发生变化的客户端数
	PathChanges prometheus.Counter

	// Outcomes 均衡结果
	// Labels: status (converged, no_improvement, budget_exhausted)
	Outcomes *prometheus.CounterVec

	// Rounds 单次均衡执行的轮数
	Rounds prometheus.Histogram

	// Expansions 单次搜索弹出的候选数
	Expansions prometheus.Histogram
}

// NewMetrics 创建指标并注册到默认 registry
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry 创建指标并注册到指定 registry
//
// reg 为 nil 时指标不注册，仅在本地计数。
func NewMetricsWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ServicesRegistered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "equalize",
			Name:      "services_registered_total",
			Help:      "Total number of services registered.",
		}),
		ClientsAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "equalize",
			Name:      "clients_added_total",
			Help:      "Total number of clients added to services.",
		}),
		ClientsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "equalize",
			Name:      "clients_rejected_total",
			Help:      "Total number of clients rejected, by reason.",
		}, []string{"reason"}),
		PathChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "equalize",
			Name:      "path_changes_total",
			Help:      "Total number of client paths changed by AddClients.",
		}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "equalize",
			Name:      "outcomes_total",
			Help:      "Equalization outcomes, by status.",
		}, []string{"status"}),
		Rounds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "equalize",
			Name:      "rounds",
			Help:      "Rounds executed per equalization.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		Expansions: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "equalize",
			Name:      "search_expansions",
			Help:      "Candidates expanded per path search.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
	}
}

// RecordRegistered 记录服务注册
func (m *Metrics) RecordRegistered() {
	if m == nil {
		return
	}
	m.ServicesRegistered.Inc()
}

// RecordAdded 记录加入的客户端
func (m *Metrics) RecordAdded(n int) {
	if m == nil || n == 0 {
		return
	}
	m.ClientsAdded.Add(float64(n))
}

// RecordRejected 记录被拒绝的客户端
func (m *Metrics) RecordRejected(err error) {
	if m == nil {
		return
	}
	m.ClientsRejected.WithLabelValues(rejectReason(err)).Inc()
}

// RecordChanges 记录路径变化
func (m *Metrics) RecordChanges(n int) {
	if m == nil || n == 0 {
		return
	}
	m.PathChanges.Add(float64(n))
}

// RecordOutcome 记录一次均衡结果
func (m *Metrics) RecordOutcome(status Status, rounds int) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(status.String()).Inc()
	m.Rounds.Observe(float64(rounds))
}

// RecordSearch 记录一次搜索的扩展数
func (m *Metrics) RecordSearch(expansions int) {
	if m == nil {
		return
	}
	m.Expansions.Observe(float64(expansions))
}
