package topology

import (
	"fmt"
	"net/netip"
	"slices"
	"sync"

	"github.com/leqnet/go-leq/pkg/types"
)

// AttachmentTable 客户端地址到接入节点的映射
//
// 由外部地址解析层维护，均衡引擎本身从不查询它；拓扑只负责保存。
type AttachmentTable struct {
	mu     sync.RWMutex
	byAddr map[netip.Addr]types.NodeID
	byNode map[types.NodeID][]netip.Addr
}

// NewAttachmentTable 创建空接入表
func NewAttachmentTable() *AttachmentTable {
	return &AttachmentTable{
		byAddr: make(map[netip.Addr]types.NodeID),
		byNode: make(map[types.NodeID][]netip.Addr),
	}
}

// Attach 记录 addr 接入在 node 上
//
// 同一地址重复接入时以最后一次为准。
func (t *AttachmentTable) Attach(addr string, node types.NodeID) error {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return fmt.Errorf("attach %q: %w", addr, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.byAddr[a]; ok {
		t.byNode[prev] = slices.DeleteFunc(t.byNode[prev], func(x netip.Addr) bool { return x == a })
	}
	t.byAddr[a] = node
	t.byNode[node] = append(t.byNode[node], a)
	return nil
}

// MustAttach 同 Attach，地址非法时 panic
func (t *AttachmentTable) MustAttach(addr string, node types.NodeID) {
	if err := t.Attach(addr, node); err != nil {
		panic(err)
	}
}

// NodeOf 返回地址所在的接入节点
func (t *AttachmentTable) NodeOf(addr string) (types.NodeID, bool) {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return 0, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.byAddr[a]
	return n, ok
}

// ClientsOf 返回接入在 node 上的全部地址
func (t *AttachmentTable) ClientsOf(node types.NodeID) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, len(t.byNode[node]))
	for i, a := range t.byNode[node] {
		out[i] = a.String()
	}
	return out
}

// Len 返回已登记的地址数
func (t *AttachmentTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byAddr)
}
