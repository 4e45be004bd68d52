// Package types 定义 go-leq 的基础类型
//
// 本文件定义所有公共错误类型。
package types

import "errors"

var (
	// ErrInvalidNodeID 无效的节点 ID
	ErrInvalidNodeID = errors.New("invalid node ID")
)
