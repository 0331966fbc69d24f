package peer

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doytsujin/QuantumGate/internal/core/concurrency"
)

// Handler 处理数据就绪的节点
//
// 在工作协程中调用，调用前数据就绪事件已被复位。
type Handler func(ctx context.Context, p *Peer)

// peersPerWorker 每个 worker 可服务的节点数，留一个位置给关闭事件
const peersPerWorker = concurrency.MaximumNumberOfUserEvents - 1

// worker 等待一组节点的数据就绪事件
type worker struct {
	id    int
	group *concurrency.EventGroup

	mu    sync.Mutex
	peers map[*concurrency.Event]*Peer
}

func newWorker(id int, shutdown *concurrency.Event) (*worker, error) {
	g := concurrency.NewEventGroup()
	if err := g.AddEvent(shutdown); err != nil {
		return nil, err
	}
	return &worker{
		id:    id,
		group: g,
		peers: make(map[*concurrency.Event]*Peer),
	}, nil
}

func (w *worker) load() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.peers)
}

func (w *worker) add(p *Peer) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.group.AddEvent(p.DataReady()); err != nil {
		return err
	}
	w.peers[p.DataReady()] = p
	return nil
}

func (w *worker) remove(p *Peer) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.peers[p.DataReady()]; !ok {
		return false
	}
	delete(w.peers, p.DataReady())
	_ = w.group.RemoveEvent(p.DataReady())
	return true
}

// ready 返回数据就绪的节点并复位其事件
func (w *worker) ready() []*Peer {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []*Peer
	for ev, p := range w.peers {
		if ev.Reset() {
			out = append(out, p)
		}
	}
	return out
}

func (w *worker) run(ctx context.Context, shutdown *concurrency.Event, timeout time.Duration, handle Handler) error {
	logger.Debug("工作协程启动", "worker", w.id)
	defer logger.Debug("工作协程退出", "worker", w.id)

	for {
		res, err := w.group.Wait(timeout)
		if errors.Is(err, concurrency.ErrNotInitialized) {
			return nil
		}
		if err != nil {
			return err
		}
		if shutdown.IsSet() {
			return nil
		}
		if !res.HadEvent {
			continue
		}
		for _, p := range w.ready() {
			handle(ctx, p)
		}
	}
}

// Pool 节点工作协程池
//
// 节点被分配给负载最小且未满的 worker，全部占满时新建 worker。
type Pool struct {
	timeout time.Duration
	handle  Handler

	shutdown *concurrency.Event

	mu       sync.Mutex
	workers  []*worker
	assigned map[*Peer]*worker
	eg       *errgroup.Group
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	stopped  bool
}

// NewPool 创建工作协程池，预先创建 n 个 worker
func NewPool(n int, timeout time.Duration, handle Handler) (*Pool, error) {
	p := &Pool{
		timeout:  timeout,
		handle:   handle,
		shutdown: concurrency.NewEvent(),
		assigned: make(map[*Peer]*worker),
	}
	for i := 0; i < n; i++ {
		if _, err := p.newWorkerLocked(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Pool) newWorkerLocked() (*worker, error) {
	w, err := newWorker(len(p.workers), p.shutdown)
	if err != nil {
		return nil, err
	}
	p.workers = append(p.workers, w)
	if p.started && !p.stopped {
		p.goLocked(w)
	}
	return w, nil
}

func (p *Pool) goLocked(w *worker) {
	ctx := p.ctx
	p.eg.Go(func() error {
		return w.run(ctx, p.shutdown, p.timeout, p.handle)
	})
}

// Start 启动全部 worker
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrAlreadyStarted
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.eg, p.ctx = errgroup.WithContext(p.ctx)
	p.started = true

	for _, w := range p.workers {
		p.goLocked(w)
	}
	logger.Info("工作协程池已启动", "workers", len(p.workers))
	return nil
}

// Stop 置位关闭事件并等待全部 worker 退出
func (p *Pool) Stop() error {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.stopped = true
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.shutdown.Set()
	p.cancel()
	eg := p.eg
	p.mu.Unlock()

	err := eg.Wait()

	p.mu.Lock()
	for _, w := range p.workers {
		w.group.Deinitialize()
	}
	p.mu.Unlock()

	logger.Info("工作协程池已停止")
	return err
}

// Add 将节点分配给一个 worker
func (p *Pool) Add(peer *Peer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrClosed
	}
	if _, ok := p.assigned[peer]; ok {
		return nil
	}

	var target *worker
	best := peersPerWorker
	for _, w := range p.workers {
		if n := w.load(); n < best {
			target, best = w, n
		}
	}
	if target == nil {
		w, err := p.newWorkerLocked()
		if err != nil {
			return err
		}
		target = w
		logger.Debug("工作协程池扩容", "workers", len(p.workers))
	}

	if err := target.add(peer); err != nil {
		return err
	}
	p.assigned[peer] = target
	return nil
}

// Remove 将节点移出所属 worker
func (p *Pool) Remove(peer *Peer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.assigned[peer]; ok {
		w.remove(peer)
		delete(p.assigned, peer)
	}
}

// Workers 返回 worker 数量
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// Len 返回已分配的节点数量
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.assigned)
}
