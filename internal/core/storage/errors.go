package storage

import "github.com/doytsujin/QuantumGate/internal/core/storage/engine"

// 重导出 engine 包的错误
var (
	// ErrNotFound 键不存在
	ErrNotFound = engine.ErrNotFound

	// ErrClosed 引擎已关闭
	ErrClosed = engine.ErrClosed

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = engine.ErrInvalidConfig

	// IsNotFound 检查是否为 key not found 错误
	IsNotFound = engine.IsNotFound
)
