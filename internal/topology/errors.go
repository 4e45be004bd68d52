package topology

import "errors"

var (
	// ErrNodeNotFound 节点不在拓扑中
	ErrNodeNotFound = errors.New("topology: node not found")

	// ErrUnreachable 目的地不可达
	ErrUnreachable = errors.New("topology: destination unreachable")

	// ErrNegativeWeight 链路代价为负
	ErrNegativeWeight = errors.New("topology: negative edge weight")

	// ErrSelfLoop 自环链路
	ErrSelfLoop = errors.New("topology: self loop")

	// ErrInvalidPath 路径无效（为空或包含不存在的链路）
	ErrInvalidPath = errors.New("topology: invalid path")

	// ErrMalformedLine 拓扑文件行格式错误
	ErrMalformedLine = errors.New("topology: malformed line")

	// ErrUnknownSource 未知的拓扑来源
	ErrUnknownSource = errors.New("topology: unknown source")
)
