package concurrency

import (
	"reflect"
	"sync"
	"time"

	"github.com/doytsujin/QuantumGate/pkg/lib/log"
)

var logger = log.Logger("core/concurrency")

// MaximumNumberOfUserEvents 单个事件组可持有的用户事件上限
//
// 底层多路等待机制通常有 64 个对象的上限，其中一个留给内部控制事件。
const MaximumNumberOfUserEvents = 63

// InfiniteTimeout 无超时等待
const InfiniteTimeout time.Duration = -1

// select 分支的固定位置
const (
	caseControl = iota
	caseTimer
	caseFirstEvent
)

// WaitResult 等待结果
type WaitResult struct {
	// Waited 是否真正进行了等待（组为空时为 false）
	Waited bool

	// HadEvent 是否有事件被置位
	HadEvent bool
}

// EventGroup 有界的多信号等待对象
//
// 零值为未初始化状态，使用前必须调用 Initialize。
// 所有方法都是并发安全的，多个 goroutine 可以同时 Wait。
type EventGroup struct {
	mu          sync.RWMutex
	initialized bool

	// events 借用的用户事件
	events []*Event

	// control 内部控制事件，成员变化时被置位并替换
	control *Event
}

// NewEventGroup 创建并初始化事件组
func NewEventGroup() *EventGroup {
	g := &EventGroup{}
	_ = g.Initialize()
	return g
}

// Initialize 初始化事件组
func (g *EventGroup) Initialize() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initialized {
		return ErrAlreadyInitialized
	}
	g.events = make([]*Event, 0, MaximumNumberOfUserEvents)
	g.control = NewEvent()
	g.initialized = true
	return nil
}

// Deinitialize 反初始化事件组
//
// 释放全部借用事件并唤醒正在等待的 goroutine，它们会返回 ErrNotInitialized。
// 对未初始化的组调用是安全的。
func (g *EventGroup) Deinitialize() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return
	}
	g.initialized = false
	g.events = nil
	g.control.Set()
	g.control = nil
}

// IsInitialized 返回是否已初始化
func (g *EventGroup) IsInitialized() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.initialized
}

// Len 返回当前持有的用户事件数量
func (g *EventGroup) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.events)
}

// AddEvent 添加事件
//
// 组已满时返回 ErrTooManyEvents，重复添加返回 ErrEventAlreadyAdded，
// 失败时组的状态不变。成功后会唤醒正在进行的等待，使其观察新的成员集合。
func (g *EventGroup) AddEvent(e *Event) error {
	if e == nil {
		return ErrNilEvent
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return ErrNotInitialized
	}
	if g.indexOfLocked(e) >= 0 {
		return ErrEventAlreadyAdded
	}
	if len(g.events) >= MaximumNumberOfUserEvents {
		logger.Debug("事件组已满", "size", len(g.events))
		return ErrTooManyEvents
	}

	g.events = append(g.events, e)
	g.notifyChangeLocked()
	return nil
}

// RemoveEvent 移除事件
//
// 移除未注册的事件是无操作。可以在其他 goroutine 正在 Wait 时调用。
func (g *EventGroup) RemoveEvent(e *Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return ErrNotInitialized
	}

	idx := g.indexOfLocked(e)
	if idx < 0 {
		return nil
	}

	g.events = append(g.events[:idx], g.events[idx+1:]...)
	g.notifyChangeLocked()
	return nil
}

// Contains 检查事件是否在组内
func (g *EventGroup) Contains(e *Event) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.indexOfLocked(e) >= 0
}

// Wait 等待任意事件被置位
//
// 返回值：
//   - 组内没有事件：立即返回 {false, false}
//   - 有事件被置位：{true, true}
//   - 超时：{true, false}
//
// timeout 为 0 时只做一次非阻塞检查，InfiniteTimeout 表示不设超时。
// Wait 不会复位事件，复位由调用方或事件所有者负责。
func (g *EventGroup) Wait(timeout time.Duration) (WaitResult, error) {
	var timerCh reflect.Value
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerCh = reflect.ValueOf(timer.C)
	}

	for {
		g.mu.RLock()
		if !g.initialized {
			g.mu.RUnlock()
			return WaitResult{}, ErrNotInitialized
		}
		if len(g.events) == 0 {
			g.mu.RUnlock()
			return WaitResult{}, nil
		}

		cases := make([]reflect.SelectCase, caseFirstEvent, caseFirstEvent+len(g.events))
		cases[caseControl] = recvCase(reflect.ValueOf(g.control.Done()))
		// 零值 Chan 的分支会被 reflect.Select 忽略
		cases[caseTimer] = recvCase(timerCh)

		for _, e := range g.events {
			if e.IsSet() {
				g.mu.RUnlock()
				return WaitResult{Waited: true, HadEvent: true}, nil
			}
			cases = append(cases, recvCase(reflect.ValueOf(e.Done())))
		}
		g.mu.RUnlock()

		if timeout == 0 {
			return WaitResult{Waited: true}, nil
		}

		chosen, _, _ := reflect.Select(cases)
		switch chosen {
		case caseControl:
			// 成员变化，重新评估
			continue
		case caseTimer:
			return WaitResult{Waited: true}, nil
		default:
			return WaitResult{Waited: true, HadEvent: true}, nil
		}
	}
}

// indexOfLocked 返回事件下标，调用方需持有锁
func (g *EventGroup) indexOfLocked(e *Event) int {
	for i, ev := range g.events {
		if ev == e {
			return i
		}
	}
	return -1
}

// notifyChangeLocked 唤醒所有等待者，调用方需持有写锁
func (g *EventGroup) notifyChangeLocked() {
	old := g.control
	g.control = NewEvent()
	old.Set()
}

func recvCase(ch reflect.Value) reflect.SelectCase {
	return reflect.SelectCase{Dir: reflect.SelectRecv, Chan: ch}
}
