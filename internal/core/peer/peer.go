package peer

import (
	"net/netip"
	"time"

	"github.com/doytsujin/QuantumGate/internal/core/concurrency"
	"github.com/doytsujin/QuantumGate/pkg/types"
)

// statusFunc 状态变化回调，在写锁释放后调用
type statusFunc func(p *Peer, from, to types.PeerStatus, at time.Time)

// Peer 连接表中的一个节点
//
// LUID 与准入地址在创建后不变，可以不加锁读取；其余数据通过守卫访问：
//
//	g := p.RLock()
//	defer g.Release()
//	status := g.Get().Status
type Peer struct {
	luid      types.PeerLUID
	admitted  netip.Addr
	data      *concurrency.ThreadSafe[Data]
	dataReady *concurrency.Event

	now      func() time.Time
	onStatus statusFunc
}

func newPeer(d Data, now func() time.Time, onStatus statusFunc) *Peer {
	return &Peer{
		luid:      d.LUID,
		admitted:  d.Cached.PeerEndpoint.Addr(),
		data:      concurrency.NewThreadSafe(d),
		dataReady: concurrency.NewEvent(),
		now:       now,
		onStatus:  onStatus,
	}
}

// LUID 返回本地连接 ID
func (p *Peer) LUID() types.PeerLUID {
	return p.luid
}

// AdmittedAddr 返回准入时占用子网名额的远端地址
func (p *Peer) AdmittedAddr() netip.Addr {
	return p.admitted
}

// RLock 获取读守卫
func (p *Peer) RLock() *concurrency.ReadGuard[Data] {
	return p.data.RLock()
}

// Lock 获取写守卫
//
// 通过写守卫直接修改 Status 会绕过迁移校验，状态变化应使用 SetStatus。
func (p *Peer) Lock() *concurrency.WriteGuard[Data] {
	return p.data.Lock()
}

// View 在读锁下访问数据
func (p *Peer) View(fn func(*Data) error) error {
	return p.data.View(fn)
}

// Update 在写锁下修改数据
func (p *Peer) Update(fn func(*Data) error) error {
	return p.data.Update(fn)
}

// Status 返回当前状态
func (p *Peer) Status() types.PeerStatus {
	g := p.data.RLock()
	defer g.Release()
	return g.Get().Status
}

// Details 返回数据快照
func (p *Peer) Details() Details {
	g := p.data.RLock()
	defer g.Release()
	return g.Get().Details()
}

// MatchQuery 在读锁下执行查询匹配
func (p *Peer) MatchQuery(params types.PeerQueryParameters) (types.PeerLUID, error) {
	g := p.data.RLock()
	defer g.Release()
	return g.Get().MatchQuery(params)
}

// SetStatus 迁移状态
//
// 迁移到 Connected 时记录连接时间；迁移到 Disconnected 时置位数据就绪事件，
// 由工作协程将节点移出连接表。
func (p *Peer) SetStatus(next types.PeerStatus) error {
	now := p.now()

	g := p.data.Lock()
	d := g.Get()
	from := d.Status
	if err := d.SetStatus(next); err != nil {
		g.Release()
		return err
	}
	if next == types.StatusConnected {
		d.Cached.ConnectedTime = now
	}
	g.Release()

	if next == types.StatusDisconnected {
		p.dataReady.Set()
	}
	if p.onStatus != nil {
		p.onStatus(p, from, next, now)
	}
	return nil
}

// SignalDataReady 通知工作协程节点有待处理的数据
func (p *Peer) SignalDataReady() {
	p.dataReady.Set()
}

// DataReady 返回数据就绪事件
func (p *Peer) DataReady() *concurrency.Event {
	return p.dataReady
}
