package badger

import (
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/doytsujin/QuantumGate/internal/core/storage/engine"
)

// WriteBatch BadgerDB 批量写入
type WriteBatch struct {
	db     *Engine
	batch  *badger.WriteBatch
	count  int
	err    error
	closed atomic.Bool
}

// Put 添加写入操作
func (b *WriteBatch) Put(key, value []byte) {
	if b.closed.Load() || len(key) == 0 || b.err != nil {
		return
	}
	b.err = b.batch.Set(key, value)
	b.count++
}

// Delete 添加删除操作
func (b *WriteBatch) Delete(key []byte) {
	if b.closed.Load() || len(key) == 0 || b.err != nil {
		return
	}
	b.err = b.batch.Delete(key)
	b.count++
}

// Write 提交批量写入，之后批量对象不可再用
func (b *WriteBatch) Write() error {
	if b.closed.Swap(true) {
		return engine.ErrBatchClosed
	}
	if b.db.closed.Load() {
		b.batch.Cancel()
		return engine.ErrClosed
	}
	if b.err != nil {
		b.batch.Cancel()
		return convertError(b.err)
	}
	return convertError(b.batch.Flush())
}

// Size 返回操作数量
func (b *WriteBatch) Size() int {
	return b.count
}

var _ engine.Batch = (*WriteBatch)(nil)
