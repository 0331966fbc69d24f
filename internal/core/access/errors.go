package access

import (
	"errors"

	"github.com/doytsujin/QuantumGate/pkg/types"
)

// 访问控制错误定义
var (
	// ErrNotFound 条目不存在
	ErrNotFound = errors.New("access: entry not found")

	// ErrAlreadyExists 条目已存在
	ErrAlreadyExists = errors.New("access: entry already exists")

	// ErrInvalidLimit 无效的连接数上限
	ErrInvalidLimit = errors.New("access: invalid connection limit")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("access: invalid configuration")

	// ErrInvalidAddress 无效的 IP 地址
	ErrInvalidAddress = types.ErrInvalidAddress

	// ErrInvalidCIDR 无效的 CIDR
	ErrInvalidCIDR = types.ErrInvalidCIDR

	// ErrInvalidAddressFamily 无效的地址族
	ErrInvalidAddressFamily = types.ErrInvalidAddressFamily
)

// IsNotFound 检查是否为 not found 错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError 检查是否为输入校验错误
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrInvalidCIDR) ||
		errors.Is(err, ErrInvalidAddressFamily) ||
		errors.Is(err, ErrInvalidLimit) ||
		errors.Is(err, ErrAlreadyExists)
}
