// Package engine 定义存储引擎接口
//
// 所有实现必须保证线程安全。批量写入在提交前彼此独立，
// 迭代器保持创建时的快照视图。
package engine

// Engine 键值存储引擎
type Engine interface {
	// Get 读取键，不存在时返回 ErrNotFound
	Get(key []byte) ([]byte, error)

	// Put 写入键值对
	Put(key, value []byte) error

	// Delete 删除键，键不存在时不报错
	Delete(key []byte) error

	// Has 检查键是否存在
	Has(key []byte) (bool, error)

	// NewBatch 创建批量写入对象
	NewBatch() Batch

	// NewPrefixIterator 创建只遍历指定前缀的迭代器，调用方负责 Close
	NewPrefixIterator(prefix []byte) Iterator

	// Start 启动后台任务（值日志 GC 等）
	Start() error

	// Close 关闭引擎，重复调用是安全的
	Close() error
}

// Batch 批量写入
//
// 不是线程安全的，不应在多个 goroutine 中并发使用。
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)

	// Write 原子地提交全部操作
	Write() error

	// Size 返回待提交的操作数量
	Size() int
}

// Iterator 迭代器
//
//	iter := eng.NewPrefixIterator(prefix)
//	defer iter.Close()
//
//	for iter.First(); iter.Valid(); iter.Next() {
//	    key, value := iter.Key(), iter.Value()
//	}
//	return iter.Error()
type Iterator interface {
	First() bool
	Next() bool
	Valid() bool

	// Key 返回当前键的副本
	Key() []byte

	// Value 返回当前值的副本
	Value() []byte

	Close()
	Error() error
}
