package equalize

// Status 最近一次均衡的结果
type Status int

const (
	// StatusPending 尚未执行过均衡
	StatusPending Status = iota

	// StatusConverged 成员路径长度差已在 maxMDD 以内
	StatusConverged

	// StatusNoImprovement 搜索找不到比当前更好的路径，提前停止
	StatusNoImprovement

	// StatusBudgetExhausted 轮数、扩展数或时间预算耗尽
	StatusBudgetExhausted
)

// String 返回状态名称
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConverged:
		return "converged"
	case StatusNoImprovement:
		return "no_improvement"
	case StatusBudgetExhausted:
		return "budget_exhausted"
	default:
		return "unknown"
	}
}

// Converged 是否已收敛
func (s Status) Converged() bool {
	return s == StatusConverged
}
