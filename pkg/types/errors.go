// Package types 定义 QuantumGate 核心的基础类型
//
// 本文件定义所有公共错误类型。
package types

import "errors"

// ============================================================================
//                              输入校验错误
// ============================================================================

var (
	// ErrInvalidAddress 无效的 IP 地址
	ErrInvalidAddress = errors.New("invalid IP address")

	// ErrInvalidCIDR 无效的 CIDR 前缀
	ErrInvalidCIDR = errors.New("invalid CIDR prefix")

	// ErrInvalidAddressFamily 无效的地址族
	ErrInvalidAddressFamily = errors.New("invalid address family")
)

// ============================================================================
//                              查询错误
// ============================================================================

var (
	// ErrNoMatch 节点不满足查询条件
	ErrNoMatch = errors.New("peer does not match query")
)

// ============================================================================
//                              编程错误（调用方缺陷）
// ============================================================================

var (
	// ErrInvalidStatusTransition 非法的状态迁移
	ErrInvalidStatusTransition = errors.New("invalid peer status transition")

	// ErrNotInitialized 对象未初始化
	ErrNotInitialized = errors.New("not initialized")
)

// IsProgrammingError 检查错误是否表示调用方缺陷
//
// 这类错误应当中止当前操作（例如断开对应连接），而不是被忽略。
func IsProgrammingError(err error) bool {
	return errors.Is(err, ErrInvalidStatusTransition) || errors.Is(err, ErrNotInitialized)
}
