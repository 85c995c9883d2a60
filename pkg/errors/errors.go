package errors

import "errors"

var (
	// ErrStaleResult 异步结果返回时主体已变化，结果被丢弃
	ErrStaleResult = errors.New("结果已过期：当前主体已变更")

	// ErrRealtimeUnavailable 实时通道不可用（Redis 未连接）
	ErrRealtimeUnavailable = errors.New("实时通道不可用")
)
