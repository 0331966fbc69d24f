package concurrency

import (
	"context"
	"sync"
)

// closedChan 预先关闭的通道
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Event 手动复位的二值信号
//
// 零值可直接使用，初始为未置位状态。Set 之后保持置位，
// 直到显式调用 Reset。
type Event struct {
	mu  sync.Mutex
	ch  chan struct{} // 置位期间处于关闭状态
	set bool
}

// NewEvent 创建事件
func NewEvent() *Event {
	return &Event{}
}

// Set 置位事件，返回状态是否发生变化
func (e *Event) Set() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.set {
		return false
	}
	e.set = true
	if e.ch == nil {
		e.ch = closedChan
	} else {
		close(e.ch)
	}
	return true
}

// Reset 复位事件，返回状态是否发生变化
func (e *Event) Reset() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.set {
		return false
	}
	e.set = false
	e.ch = make(chan struct{})
	return true
}

// IsSet 返回事件是否处于置位状态
func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Done 返回一个在事件置位时关闭的通道
//
// 事件已置位时返回已关闭的通道。复位之后需要重新获取。
func (e *Event) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ch == nil {
		e.ch = make(chan struct{})
	}
	return e.ch
}

// Wait 阻塞直到事件置位或 ctx 结束
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
