package eventbus

import (
	"reflect"
	"sync"
	"sync/atomic"

	pkgif "github.com/doytsujin/QuantumGate/pkg/interfaces"
)

// Subscription 订阅
type Subscription struct {
	bus       *Bus
	typ       reflect.Type
	out       chan interface{}
	closeOnce sync.Once
}

// Out 返回事件通道
func (s *Subscription) Out() <-chan interface{} {
	return s.out
}

// Close 取消订阅并关闭通道，可重复调用
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		// 移除后节点不会再向 out 发送
		s.bus.removeSub(s)
		close(s.out)
	})
	return nil
}

// Emitter 事件发射器
type Emitter struct {
	bus       *Bus
	node      *node
	typ       reflect.Type
	closed    atomic.Bool
	closeOnce sync.Once
}

// Emit 发射事件
//
// 事件可以是值或指向值的指针，类型必须与发射器一致。
func (e *Emitter) Emit(event interface{}) error {
	if e.closed.Load() {
		return ErrEmitterClosed
	}
	if e.bus.closed.Load() {
		return ErrClosed
	}

	typ := reflect.TypeOf(event)
	if typ != e.typ && !(typ != nil && typ.Kind() == reflect.Ptr && typ.Elem() == e.typ) {
		return ErrTypeMismatch
	}

	e.node.emit(event)
	return nil
}

// Close 关闭发射器
func (e *Emitter) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		if e.node.nEmitters.Add(-1) == 0 {
			e.bus.tryDropNode(e.typ)
		}
	})
	return nil
}

var (
	_ pkgif.Subscription = (*Subscription)(nil)
	_ pkgif.Emitter      = (*Emitter)(nil)
)
