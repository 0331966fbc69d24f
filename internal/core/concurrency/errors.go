package concurrency

import (
	"errors"
	"fmt"

	"github.com/doytsujin/QuantumGate/pkg/types"
)

// 同步原语错误定义
var (
	// ErrNotInitialized 事件组未初始化
	ErrNotInitialized = fmt.Errorf("concurrency: event group %w", types.ErrNotInitialized)

	// ErrAlreadyInitialized 事件组已初始化
	ErrAlreadyInitialized = errors.New("concurrency: event group already initialized")

	// ErrTooManyEvents 事件组已满
	ErrTooManyEvents = errors.New("concurrency: event group is full")

	// ErrEventAlreadyAdded 事件已在组内
	ErrEventAlreadyAdded = errors.New("concurrency: event already added")

	// ErrNilEvent 空事件
	ErrNilEvent = errors.New("concurrency: nil event")
)
