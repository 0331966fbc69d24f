package peer

import "errors"

// 节点管理错误定义
var (
	// ErrNotFound 节点不存在
	ErrNotFound = errors.New("peer: not found")

	// ErrAdmissionDenied 连接未通过准入判定
	ErrAdmissionDenied = errors.New("peer: admission denied")

	// ErrTableFull 连接表已满
	ErrTableFull = errors.New("peer: table full")

	// ErrInvalidEndpoint 无效的远端地址
	ErrInvalidEndpoint = errors.New("peer: invalid endpoint")

	// ErrClosed 管理器已关闭
	ErrClosed = errors.New("peer: manager closed")

	// ErrAlreadyStarted 已经启动
	ErrAlreadyStarted = errors.New("peer: already started")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("peer: invalid configuration")
)

// IsAdmissionDenied 检查是否为准入拒绝
func IsAdmissionDenied(err error) bool {
	return errors.Is(err, ErrAdmissionDenied)
}
