package peer

import (
	"context"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/doytsujin/QuantumGate/internal/core/access"
	"github.com/doytsujin/QuantumGate/internal/core/eventbus"
	"github.com/doytsujin/QuantumGate/pkg/types"
)

var localEP = netip.MustParseAddrPort("192.0.2.1:999")

// testManager 创建并启动节点管理器
func testManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()

	cfg := DefaultConfig()
	cfg.WorkerWaitTimeout = 50 * time.Millisecond
	cfg.ReapInterval = 0

	m, err := NewManager(cfg, opts...)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() {
		assert.NoError(t, m.Stop())
	})
	return m
}

// testAccess 创建不持久化的访问控制管理器
func testAccess(t *testing.T) *access.Manager {
	t.Helper()

	cfg := access.DefaultConfig()
	cfg.Persist = false
	am, err := access.NewManager(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = am.Close() })
	return am
}

// toReady 把节点推进到 Ready
func toReady(t *testing.T, p *Peer) {
	t.Helper()
	for _, s := range []types.PeerStatus{
		types.StatusConnecting,
		types.StatusConnected,
		types.StatusAuthentication,
		types.StatusReady,
	} {
		require.NoError(t, p.SetStatus(s))
	}
}

func TestManager_AddAndRemove(t *testing.T) {
	m := testManager(t)

	p, err := m.Add(types.DirOutbound, localEP, netip.MustParseAddrPort("198.51.100.1:999"))
	require.NoError(t, err)
	assert.Equal(t, types.PeerLUID(1), p.LUID())
	assert.Equal(t, types.StatusInitialized, p.Status())
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get(p.LUID())
	require.True(t, ok)
	assert.Same(t, p, got)

	p2, err := m.Add(types.DirInbound, localEP, netip.MustParseAddrPort("198.51.100.2:999"))
	require.NoError(t, err)
	assert.Equal(t, types.PeerLUID(2), p2.LUID())

	require.NoError(t, m.Remove(p.LUID()))
	assert.ErrorIs(t, m.Remove(p.LUID()), ErrNotFound)
	assert.ErrorIs(t, m.SetStatus(p.LUID(), types.StatusReady), ErrNotFound)
	assert.Equal(t, 1, m.Len())

	_, err = m.Add(types.DirOutbound, localEP, netip.AddrPort{})
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestManager_TableFull(t *testing.T) {
	cfg := DefaultConfig().WithMaxPeers(1)
	m, err := NewManager(cfg)
	require.NoError(t, err)
	defer m.Stop()

	_, err = m.Add(types.DirOutbound, localEP, netip.MustParseAddrPort("198.51.100.1:1"))
	require.NoError(t, err)
	_, err = m.Add(types.DirOutbound, localEP, netip.MustParseAddrPort("198.51.100.2:1"))
	assert.ErrorIs(t, err, ErrTableFull)
}

func TestManager_AdmissionDenied(t *testing.T) {
	am := testAccess(t)
	_, err := am.AddIPFilter("203.0.113.0/24", types.IPFilterBlocked)
	require.NoError(t, err)

	m := testManager(t, WithAccessManager(am))

	_, err = m.Add(types.DirInbound, localEP, netip.MustParseAddrPort("203.0.113.9:999"))
	assert.True(t, IsAdmissionDenied(err))
	assert.Contains(t, err.Error(), types.DenyIPFilter.String())
	assert.Equal(t, 0, m.Len())
}

// TestManager_ConcurrentSubnetAdmission 同一子网限 2 个连接，3 个并发加入只有 2 个成功
func TestManager_ConcurrentSubnetAdmission(t *testing.T) {
	am := testAccess(t)
	require.NoError(t, am.AddIPSubnetLimit("IPv4", "/24", 2))

	m := testManager(t, WithAccessManager(am))

	var ok, denied atomic.Int32
	var g errgroup.Group
	for i := 1; i <= 3; i++ {
		remote := netip.AddrPortFrom(netip.AddrFrom4([4]byte{192, 168, 1, byte(i)}), 999)
		g.Go(func() error {
			_, err := m.Add(types.DirInbound, localEP, remote)
			switch {
			case err == nil:
				ok.Add(1)
			case IsAdmissionDenied(err):
				denied.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(2), ok.Load())
	assert.Equal(t, int32(1), denied.Load())
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 2, am.SubnetStats().IPv4Connections)

	// 移除一个节点后名额被释放
	luids := m.FindPeers(types.PeerQueryParameters{})
	assert.Empty(t, luids)
	for _, p := range m.snapshot() {
		require.NoError(t, m.Remove(p.LUID()))
		break
	}
	_, err := m.Add(types.DirInbound, localEP, netip.MustParseAddrPort("192.168.1.50:999"))
	require.NoError(t, err)
}

func TestManager_DisconnectedPeerIsRemovedByWorker(t *testing.T) {
	am := testAccess(t)
	require.NoError(t, am.AddIPSubnetLimit("IPv4", "/32", 1))

	m := testManager(t, WithAccessManager(am))
	remote := netip.MustParseAddrPort("198.51.100.7:999")

	p, err := m.Add(types.DirOutbound, localEP, remote)
	require.NoError(t, err)
	require.NoError(t, p.SetStatus(types.StatusDisconnected))

	require.Eventually(t, func() bool {
		return m.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// 子网名额已释放
	_, err = m.Add(types.DirOutbound, localEP, remote)
	assert.NoError(t, err)
}

func TestManager_Reap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReapInterval = 0
	m, err := NewManager(cfg)
	require.NoError(t, err)
	defer m.Stop()

	// 不启动工作协程，只由 Reap 清理
	p1, err := m.Add(types.DirOutbound, localEP, netip.MustParseAddrPort("198.51.100.1:1"))
	require.NoError(t, err)
	_, err = m.Add(types.DirOutbound, localEP, netip.MustParseAddrPort("198.51.100.2:1"))
	require.NoError(t, err)

	require.NoError(t, p1.SetStatus(types.StatusDisconnected))
	assert.Equal(t, 1, m.Reap())
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, m.Reap())
}

func TestManager_FindAndQueryPeers(t *testing.T) {
	m := testManager(t)

	in, err := m.Add(types.DirInbound, localEP, netip.MustParseAddrPort("198.51.100.1:1"))
	require.NoError(t, err)
	out, err := m.Add(types.DirOutbound, localEP, netip.MustParseAddrPort("198.51.100.2:1"))
	require.NoError(t, err)
	_, err = m.Add(types.DirOutbound, localEP, netip.MustParseAddrPort("198.51.100.3:1"))
	require.NoError(t, err)

	toReady(t, in)
	toReady(t, out)
	require.NoError(t, out.Update(func(d *Data) error {
		d.IsAuthenticated = true
		d.Cached.PeerExtenderUUIDs.Add(extA)
		return nil
	}))

	assert.Equal(t, []types.PeerLUID{in.LUID(), out.LUID()}, m.FindPeers(types.PeerQueryParameters{}))
	assert.Equal(t, []types.PeerLUID{in.LUID()}, m.FindPeers(types.PeerQueryParameters{
		Connections: types.ConnectionInbound,
	}))
	assert.Equal(t, []types.PeerLUID{out.LUID()}, m.FindPeers(types.PeerQueryParameters{
		Authentication: types.AuthenticationAuthenticated,
		Extenders:      types.ExtenderQuery{UUIDs: []types.ExtenderUUID{extA}, Include: types.IncludeAllOf},
	}))

	details := m.QueryPeers(types.PeerQueryParameters{Connections: types.ConnectionOutbound})
	require.Len(t, details, 1)
	assert.Equal(t, out.LUID(), details[0].LUID)
	assert.False(t, details[0].ConnectedTime.IsZero())

	stats := m.Stats()
	assert.Equal(t, 2, stats[types.StatusReady])
	assert.Equal(t, 1, stats[types.StatusInitialized])
}

func TestManager_Events(t *testing.T) {
	bus := eventbus.NewBus()
	defer bus.Close()

	added, err := bus.Subscribe(new(types.EvtPeerAdded))
	require.NoError(t, err)
	changed, err := bus.Subscribe(new(types.EvtPeerStatusChanged))
	require.NoError(t, err)
	removed, err := bus.Subscribe(new(types.EvtPeerRemoved))
	require.NoError(t, err)

	m := testManager(t, WithEventBus(bus))
	remote := netip.MustParseAddrPort("198.51.100.1:1")

	p, err := m.Add(types.DirInbound, localEP, remote)
	require.NoError(t, err)
	require.NoError(t, p.SetStatus(types.StatusAccepted))
	require.NoError(t, m.Remove(p.LUID()))

	recv := func(ch <-chan interface{}) interface{} {
		select {
		case e := <-ch:
			return e
		case <-time.After(time.Second):
			t.Fatal("event not received")
			return nil
		}
	}

	a := recv(added.Out()).(types.EvtPeerAdded)
	assert.Equal(t, p.LUID(), a.LUID)
	assert.Equal(t, remote, a.Endpoint)

	c := recv(changed.Out()).(types.EvtPeerStatusChanged)
	assert.Equal(t, types.StatusInitialized, c.From)
	assert.Equal(t, types.StatusAccepted, c.To)

	r := recv(removed.Out()).(types.EvtPeerRemoved)
	assert.Equal(t, p.LUID(), r.LUID)
}

// TestManager_RemoveReleasesAdmittedAddress 端点被改写后仍释放准入时的子网名额
func TestManager_RemoveReleasesAdmittedAddress(t *testing.T) {
	am := testAccess(t)
	require.NoError(t, am.AddIPSubnetLimit("IPv4", "/24", 1))

	m := testManager(t, WithAccessManager(am))

	p, err := m.Add(types.DirInbound, localEP, netip.MustParseAddrPort("198.51.100.7:999"))
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("198.51.100.7"), p.AdmittedAddr())

	require.NoError(t, p.Update(func(d *Data) error {
		d.Cached.PeerEndpoint = netip.MustParseAddrPort("203.0.113.9:999")
		return nil
	}))
	assert.Equal(t, netip.MustParseAddr("198.51.100.7"), p.AdmittedAddr())

	require.NoError(t, m.Remove(p.LUID()))
	assert.Equal(t, 0, am.SubnetStats().IPv4Connections)

	_, err = m.Add(types.DirInbound, localEP, netip.MustParseAddrPort("198.51.100.8:999"))
	assert.NoError(t, err)
}

func TestManager_StopRemovesAll(t *testing.T) {
	am := testAccess(t)
	m, err := NewManager(DefaultConfig(), WithAccessManager(am))
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))

	_, err = m.Add(types.DirOutbound, localEP, netip.MustParseAddrPort("198.51.100.1:1"))
	require.NoError(t, err)
	assert.Equal(t, 1, am.SubnetStats().IPv4Connections)

	require.NoError(t, m.Stop())
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, am.SubnetStats().IPv4Connections)

	_, err = m.Add(types.DirOutbound, localEP, netip.MustParseAddrPort("198.51.100.1:1"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, m.Stop())
}
