package peer

import (
	"context"
	"fmt"
	"net/netip"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	pkgif "github.com/doytsujin/QuantumGate/pkg/interfaces"
	"github.com/doytsujin/QuantumGate/pkg/lib/log"
	"github.com/doytsujin/QuantumGate/pkg/types"
)

var logger = log.Logger("core/peer")

// Manager 节点连接表
type Manager struct {
	cfg     Config
	clock   clock.Clock
	access  pkgif.AccessManager
	bus     pkgif.EventBus
	handler Handler

	mu       sync.RWMutex
	peers    map[types.PeerLUID]*Peer
	nextLUID types.PeerLUID
	closed   bool

	pool *Pool

	emAdded   pkgif.Emitter
	emStatus  pkgif.Emitter
	emRemoved pkgif.Emitter

	reapStop chan struct{}
	reapWg   sync.WaitGroup
}

// Option 管理器选项
type Option func(*Manager)

// WithAccessManager 加入连接表前执行准入判定
func WithAccessManager(am pkgif.AccessManager) Option {
	return func(m *Manager) {
		m.access = am
	}
}

// WithEventBus 发布节点生命周期事件
func WithEventBus(bus pkgif.EventBus) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

// WithClock 使用指定时钟
func WithClock(clk clock.Clock) Option {
	return func(m *Manager) {
		m.clock = clk
	}
}

// WithHandler 设置数据就绪处理函数
//
// 已断开的节点由管理器自行移除，不会交给 handler。
func WithHandler(h Handler) Option {
	return func(m *Manager) {
		m.handler = h
	}
}

// NewManager 创建节点管理器
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:      cfg,
		peers:    make(map[types.PeerLUID]*Peer),
		reapStop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clock.New()
	}

	pool, err := NewPool(cfg.Workers, cfg.WorkerWaitTimeout, m.handle)
	if err != nil {
		return nil, err
	}
	m.pool = pool

	if m.bus != nil {
		if err := m.initEmitters(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) initEmitters() error {
	var err error
	if m.emAdded, err = m.bus.Emitter(new(types.EvtPeerAdded)); err != nil {
		return fmt.Errorf("peer added emitter: %w", err)
	}
	if m.emStatus, err = m.bus.Emitter(new(types.EvtPeerStatusChanged)); err != nil {
		return fmt.Errorf("peer status emitter: %w", err)
	}
	if m.emRemoved, err = m.bus.Emitter(new(types.EvtPeerRemoved)); err != nil {
		return fmt.Errorf("peer removed emitter: %w", err)
	}
	return nil
}

// Start 启动工作协程池与定期清理
func (m *Manager) Start(ctx context.Context) error {
	if err := m.pool.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	if m.cfg.ReapInterval > 0 {
		m.reapWg.Add(1)
		go m.reapLoop()
	}
	logger.Info("节点管理器已启动", "workers", m.pool.Workers(), "maxPeers", m.cfg.MaxPeers)
	return nil
}

// Stop 停止工作协程，移除全部节点并释放其子网名额
func (m *Manager) Stop() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.reapStop)
	m.reapWg.Wait()

	err := m.pool.Stop()

	m.mu.Lock()
	removed := make([]*Peer, 0, len(m.peers))
	for luid, p := range m.peers {
		delete(m.peers, luid)
		m.releaseLocked(p)
		removed = append(removed, p)
	}
	m.mu.Unlock()

	for _, p := range removed {
		m.emitRemoved(p)
	}

	for _, em := range []pkgif.Emitter{m.emAdded, m.emStatus, m.emRemoved} {
		if em != nil {
			err = multierr.Append(err, em.Close())
		}
	}
	logger.Info("节点管理器已停止", "removed", len(removed))
	return err
}

// ============================================================================
//                              连接表
// ============================================================================

// Add 加入一个新连接
//
// 配置了访问控制时先执行准入判定，拒绝时返回包装了拒绝原因的
// ErrAdmissionDenied。准入、插入与子网名额占用在同一把锁下完成。
func (m *Manager) Add(dir types.Direction, local, remote netip.AddrPort) (*Peer, error) {
	if !remote.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEndpoint, remote)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if m.cfg.MaxPeers > 0 && len(m.peers) >= m.cfg.MaxPeers {
		m.mu.Unlock()
		return nil, ErrTableFull
	}

	if m.access != nil {
		v := m.access.AdmitConnection(remote.Addr(), dir)
		if !v.Allowed {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrAdmissionDenied, v.Reason)
		}
	}

	m.nextLUID++
	p := newPeer(NewData(m.nextLUID, dir, local, remote), m.clock.Now, m.statusChanged)

	if err := m.pool.Add(p); err != nil {
		if m.access != nil {
			m.access.ReleaseConnection(remote.Addr())
		}
		m.mu.Unlock()
		return nil, err
	}
	m.peers[p.LUID()] = p
	m.mu.Unlock()

	logger.Debug("节点加入连接表", "luid", p.LUID(), "direction", dir, "endpoint", remote)
	if m.emAdded != nil {
		_ = m.emAdded.Emit(types.EvtPeerAdded{
			LUID:      p.LUID(),
			Direction: dir,
			Endpoint:  remote,
			Timestamp: m.clock.Now(),
		})
	}
	return p, nil
}

// Get 返回节点
func (m *Manager) Get(luid types.PeerLUID) (*Peer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.peers[luid]
	return p, ok
}

// Len 返回连接表大小
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.peers)
}

// SetStatus 迁移节点状态
func (m *Manager) SetStatus(luid types.PeerLUID, next types.PeerStatus) error {
	p, ok := m.Get(luid)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, luid)
	}
	return p.SetStatus(next)
}

// Remove 移出连接表并释放子网名额
func (m *Manager) Remove(luid types.PeerLUID) error {
	m.mu.Lock()
	p, ok := m.peers[luid]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, luid)
	}
	delete(m.peers, luid)
	m.releaseLocked(p)
	m.mu.Unlock()

	logger.Debug("节点移出连接表", "luid", luid)
	m.emitRemoved(p)
	return nil
}

// Reap 移除全部已断开的节点，返回移除数量
func (m *Manager) Reap() int {
	m.mu.Lock()
	var removed []*Peer
	for luid, p := range m.peers {
		if p.Status() == types.StatusDisconnected {
			delete(m.peers, luid)
			m.releaseLocked(p)
			removed = append(removed, p)
		}
	}
	m.mu.Unlock()

	for _, p := range removed {
		m.emitRemoved(p)
	}
	if len(removed) > 0 {
		logger.Debug("清理已断开节点", "count", len(removed))
	}
	return len(removed)
}

// releaseLocked 释放节点占用的资源，调用方需持有写锁
func (m *Manager) releaseLocked(p *Peer) {
	m.pool.Remove(p)
	if m.access != nil {
		m.access.ReleaseConnection(p.AdmittedAddr())
	}
}

func (m *Manager) reapLoop() {
	defer m.reapWg.Done()

	ticker := m.clock.Ticker(m.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.reapStop:
			return
		case <-ticker.C:
			m.Reap()
		}
	}
}

// handle 工作协程回调
func (m *Manager) handle(ctx context.Context, p *Peer) {
	if p.Status() == types.StatusDisconnected {
		_ = m.Remove(p.LUID())
		return
	}
	if m.handler != nil {
		m.handler(ctx, p)
	}
}

// ============================================================================
//                              事件
// ============================================================================

func (m *Manager) statusChanged(p *Peer, from, to types.PeerStatus, at time.Time) {
	logger.Debug("节点状态变化", "luid", p.LUID(), "from", from, "to", to)
	if m.emStatus != nil {
		_ = m.emStatus.Emit(types.EvtPeerStatusChanged{
			LUID:      p.LUID(),
			From:      from,
			To:        to,
			Timestamp: at,
		})
	}
}

func (m *Manager) emitRemoved(p *Peer) {
	if m.emRemoved == nil {
		return
	}
	g := p.RLock()
	endpoint := g.Get().Cached.PeerEndpoint
	g.Release()

	_ = m.emRemoved.Emit(types.EvtPeerRemoved{
		LUID:      p.LUID(),
		Endpoint:  endpoint,
		Timestamp: m.clock.Now(),
	})
}

// ============================================================================
//                              查询
// ============================================================================

// snapshot 返回按 LUID 排序的节点列表
func (m *Manager) snapshot() []*Peer {
	m.mu.RLock()
	peers := make([]*Peer, 0, len(m.peers))
	for _, p := range m.peers {
		peers = append(peers, p)
	}
	m.mu.RUnlock()

	sort.Slice(peers, func(i, j int) bool { return peers[i].LUID() < peers[j].LUID() })
	return peers
}

// FindPeers 返回满足查询条件的节点 LUID，按 LUID 排序
func (m *Manager) FindPeers(params types.PeerQueryParameters) []types.PeerLUID {
	var out []types.PeerLUID
	for _, p := range m.snapshot() {
		if luid, err := p.MatchQuery(params); err == nil {
			out = append(out, luid)
		}
	}
	return out
}

// QueryPeers 返回满足查询条件的节点快照
func (m *Manager) QueryPeers(params types.PeerQueryParameters) []Details {
	var out []Details
	for _, p := range m.snapshot() {
		g := p.RLock()
		if _, err := g.Get().MatchQuery(params); err == nil {
			out = append(out, g.Get().Details())
		}
		g.Release()
	}
	return out
}

// Stats 返回各状态的节点数量
func (m *Manager) Stats() map[types.PeerStatus]int {
	out := make(map[types.PeerStatus]int)
	for _, p := range m.snapshot() {
		out[p.Status()]++
	}
	return out
}

var _ pkgif.PeerStatsSource = (*Manager)(nil)
