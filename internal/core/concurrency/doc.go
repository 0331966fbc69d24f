// Package concurrency 提供核心层使用的同步原语
//
// # 组件
//
//   - Event: 手动复位的二值信号，可被多个 goroutine 并发观察
//   - EventGroup: 把有限数量的 Event 组合成一个可等待对象，
//     等待"任意一个信号被置位"或超时
//   - ThreadSafe[T]: 读写锁保护的数据记录，提供作用域读/写守卫
//
// # EventGroup 容量
//
// EventGroup 最多持有 MaximumNumberOfUserEvents 个用户事件，
// 外加一个内部控制事件，用于在成员变化时唤醒等待者。
// 需要等待更多信号的调用方应当把事件分片到多个 EventGroup。
//
// # 所有权
//
// EventGroup 只借用事件，不拥有其生命周期。销毁一个仍在组内的事件
// 属于调用方错误，应先 RemoveEvent。
//
// # 使用示例
//
//	var shutdown, dataReady concurrency.Event
//
//	var group concurrency.EventGroup
//	_ = group.Initialize()
//	defer group.Deinitialize()
//
//	_ = group.AddEvent(&shutdown)
//	_ = group.AddEvent(&dataReady)
//
//	res, err := group.Wait(time.Second)
//	if err == nil && res.HadEvent {
//	    // 检查哪个事件被置位
//	}
package concurrency
