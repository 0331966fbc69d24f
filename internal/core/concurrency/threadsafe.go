package concurrency

import "sync"

// ThreadSafe 读写锁保护的值
//
// 访问内部值只能通过守卫（ReadGuard / WriteGuard）或 View / Update 回调，
// 守卫存活期间持有相应的锁。
type ThreadSafe[T any] struct {
	mu  sync.RWMutex
	val T
}

// NewThreadSafe 创建受保护的值
func NewThreadSafe[T any](v T) *ThreadSafe[T] {
	return &ThreadSafe[T]{val: v}
}

// ReadGuard 读守卫，持有共享锁
type ReadGuard[T any] struct {
	ts   *ThreadSafe[T]
	once sync.Once
}

// Get 返回内部值指针，只能在 Release 之前读取
func (g *ReadGuard[T]) Get() *T {
	return &g.ts.val
}

// Release 释放共享锁，可重复调用
func (g *ReadGuard[T]) Release() {
	g.once.Do(g.ts.mu.RUnlock)
}

// WriteGuard 写守卫，持有独占锁
type WriteGuard[T any] struct {
	ts   *ThreadSafe[T]
	once sync.Once
}

// Get 返回内部值指针，只能在 Release 之前读写
func (g *WriteGuard[T]) Get() *T {
	return &g.ts.val
}

// Release 释放独占锁，可重复调用
func (g *WriteGuard[T]) Release() {
	g.once.Do(g.ts.mu.Unlock)
}

// RLock 获取读守卫
//
//	g := ts.RLock()
//	defer g.Release()
func (t *ThreadSafe[T]) RLock() *ReadGuard[T] {
	t.mu.RLock()
	return &ReadGuard[T]{ts: t}
}

// Lock 获取写守卫
func (t *ThreadSafe[T]) Lock() *WriteGuard[T] {
	t.mu.Lock()
	return &WriteGuard[T]{ts: t}
}

// View 在共享锁下执行只读回调
func (t *ThreadSafe[T]) View(fn func(*T) error) error {
	g := t.RLock()
	defer g.Release()
	return fn(g.Get())
}

// Update 在独占锁下执行回调
func (t *ThreadSafe[T]) Update(fn func(*T) error) error {
	g := t.Lock()
	defer g.Release()
	return fn(g.Get())
}

// Snapshot 返回值的浅拷贝
func (t *ThreadSafe[T]) Snapshot() T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.val
}
