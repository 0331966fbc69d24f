package access

import (
	"context"
	"net/netip"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/doytsujin/QuantumGate/internal/core/eventbus"
	"github.com/doytsujin/QuantumGate/internal/core/storage/engine"
	"github.com/doytsujin/QuantumGate/internal/core/storage/engine/badger"
	"github.com/doytsujin/QuantumGate/internal/core/storage/kv"
	"github.com/doytsujin/QuantumGate/pkg/types"
)

// testManager 创建不持久化的管理器
func testManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Persist = false

	m, err := NewManager(cfg, append([]Option{WithClock(newMockClock())}, opts...)...)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() {
		assert.NoError(t, m.Close())
	})
	return m
}

type recorderFunc func(types.Direction, types.AdmissionVerdict)

func (f recorderFunc) RecordAdmission(dir types.Direction, v types.AdmissionVerdict) {
	f(dir, v)
}

func TestManager_ReputationRoundTrip(t *testing.T) {
	m := testManager(t)
	addr := netip.MustParseAddr("192.168.10.1")

	before := m.clock.Now()
	require.NoError(t, m.SetIPReputation(types.IPReputation{Address: addr, Score: -600}))

	all, err := m.GetAllIPReputations()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, addr, all[0].Address)
	assert.Equal(t, int16(-600), all[0].Score)
	assert.False(t, all[0].LastUpdateTime.Before(before))

	require.NoError(t, m.ResetIPReputation("192.168.10.1"))
	rep, ok := m.GetIPReputation(addr)
	require.True(t, ok)
	assert.Equal(t, m.cfg.Reputation.DefaultScore, rep.Score)

	// 不存在的地址重置也成功，删除则返回 not found
	require.NoError(t, m.ResetIPReputation("10.99.0.1"))
	assert.True(t, IsNotFound(m.RemoveIPReputation("10.99.0.1")))

	require.NoError(t, m.RemoveIPReputation("192.168.10.1"))
	all, err = m.GetAllIPReputations()
	require.NoError(t, err)
	assert.Empty(t, all)

	err = m.ResetIPReputation("not-an-ip")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.True(t, IsValidationError(err))
}

func TestManager_ResetAll(t *testing.T) {
	m := testManager(t)

	require.NoError(t, m.SetIPReputation(types.IPReputation{Address: netip.MustParseAddr("10.0.0.1"), Score: -50}))
	require.NoError(t, m.UpdateIPReputation(netip.MustParseAddr("10.0.0.2"), types.ReputationDeteriorateModerate))
	require.NoError(t, m.ResetAllIPReputations())

	all, err := m.GetAllIPReputations()
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, rep := range all {
		assert.Equal(t, m.cfg.Reputation.DefaultScore, rep.Score)
	}
}

func TestManager_SubnetLimitValidation(t *testing.T) {
	m := testManager(t)

	require.NoError(t, m.AddIPSubnetLimit("IPv4", "/24", 2))

	assert.ErrorIs(t, m.AddIPSubnetLimit("IPv4", "/33", 2), ErrInvalidCIDR)
	assert.ErrorIs(t, m.AddIPSubnetLimit("IPX", "/24", 2), ErrInvalidAddressFamily)
	assert.ErrorIs(t, m.AddIPSubnetLimit("ipv4", "24", 3), ErrAlreadyExists)

	limits, err := m.GetAllIPSubnetLimits()
	require.NoError(t, err)
	require.Len(t, limits, 1)
	assert.Equal(t, types.IPSubnetLimit{
		AddressFamily:      types.FamilyIPv4,
		CIDRLeadingBits:    "/24",
		MaximumConnections: 2,
	}, limits[0])

	assert.ErrorIs(t, m.RemoveIPSubnetLimit("IPv6", "/64"), ErrNotFound)
	require.NoError(t, m.RemoveIPSubnetLimit("IPv4", "/24"))
}

func TestManager_ConcurrentAdmission(t *testing.T) {
	m := testManager(t)
	require.NoError(t, m.AddIPSubnetLimit("IPv4", "/24", 2))

	addrs := []netip.Addr{
		netip.MustParseAddr("192.168.1.1"),
		netip.MustParseAddr("192.168.1.2"),
		netip.MustParseAddr("192.168.1.3"),
	}

	var allowed, denied atomic.Int32
	var g errgroup.Group
	for _, a := range addrs {
		a := a
		g.Go(func() error {
			v := m.AdmitConnection(a, types.DirInbound)
			if v.Allowed {
				allowed.Add(1)
			} else {
				assert.Equal(t, types.DenySubnetLimit, v.Reason)
				denied.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(2), allowed.Load())
	assert.Equal(t, int32(1), denied.Load())
	assert.Equal(t, 2, m.SubnetStats().IPv4Connections)

	// 释放名额后可以再次准入
	for _, a := range addrs {
		m.ReleaseConnection(a)
	}
	assert.True(t, m.AdmitConnection(addrs[2], types.DirOutbound).Allowed)
}

func TestManager_AdmissionOrder(t *testing.T) {
	var verdicts []types.AdmissionVerdict
	m := testManager(t, WithRecorder(recorderFunc(func(_ types.Direction, v types.AdmissionVerdict) {
		verdicts = append(verdicts, v)
	})))

	v := m.AdmitConnection(netip.Addr{}, types.DirInbound)
	assert.Equal(t, types.DenyInvalidAddress, v.Reason)

	_, err := m.AddIPFilter("10.0.0.0/8", types.IPFilterBlocked)
	require.NoError(t, err)
	v = m.AdmitConnection(netip.MustParseAddr("10.1.1.1"), types.DirOutbound)
	assert.Equal(t, types.DenyIPFilter, v.Reason)
	assert.False(t, m.IsIPAllowed(netip.MustParseAddr("10.1.1.1")))

	bad := netip.MustParseAddr("172.16.0.9")
	require.NoError(t, m.UpdateIPReputation(bad, types.ReputationDeteriorateSevere))
	v = m.AdmitConnection(bad, types.DirInbound)
	assert.Equal(t, types.DenyReputation, v.Reason)
	assert.Equal(t, m.cfg.Reputation.MinimumScore, v.Score)

	v = m.AdmitConnection(netip.MustParseAddr("172.16.0.10"), types.DirInbound)
	assert.True(t, v.Allowed)
	assert.Equal(t, m.cfg.Reputation.DefaultScore, v.Score)

	assert.Len(t, verdicts, 4)
}

func TestManager_AttemptLimitDeterioratesReputation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Persist = false
	cfg.Attempts.MaxPerInterval = 2

	m, err := NewManager(cfg, WithClock(newMockClock()))
	require.NoError(t, err)
	defer m.Close()

	addr := netip.MustParseAddr("203.0.113.5")
	for i := 0; i < 2; i++ {
		v := m.AdmitConnection(addr, types.DirInbound)
		require.True(t, v.Allowed)
		m.ReleaseConnection(addr)
	}

	v := m.AdmitConnection(addr, types.DirInbound)
	assert.Equal(t, types.DenyConnectionAttempts, v.Reason)
	assert.Equal(t, cfg.Reputation.DeteriorateMinimal, v.Score)

	// 出站连接不受频率限制
	assert.True(t, m.AdmitConnection(addr, types.DirOutbound).Allowed)
}

func TestManager_DeniedEvent(t *testing.T) {
	bus := eventbus.NewBus()
	defer bus.Close()

	sub, err := bus.Subscribe(new(types.EvtAdmissionDenied))
	require.NoError(t, err)
	defer sub.Close()

	m := testManager(t, WithEventBus(bus))
	_, err = m.AddIPFilter("198.51.100.7", types.IPFilterBlocked)
	require.NoError(t, err)

	m.AdmitConnection(netip.MustParseAddr("198.51.100.7"), types.DirInbound)

	select {
	case e := <-sub.Out():
		evt := e.(types.EvtAdmissionDenied)
		assert.Equal(t, types.DenyIPFilter, evt.Reason)
		assert.Equal(t, types.DirInbound, evt.Direction)
	case <-time.After(time.Second):
		t.Fatal("admission denied event not received")
	}
}

func TestManager_StartSeedsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Persist = false
	cfg.SubnetLimits = []types.IPSubnetLimit{
		{AddressFamily: types.FamilyIPv6, CIDRLeadingBits: "/48", MaximumConnections: 4},
	}
	cfg.Filters = []FilterEntry{
		{CIDR: "10.0.0.0/8", Type: types.IPFilterBlocked},
		{CIDR: "10.0.0.0/8", Type: types.IPFilterBlocked},
	}

	m, err := NewManager(cfg)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	defer m.Close()

	limits, _ := m.GetAllIPSubnetLimits()
	assert.Len(t, limits, 1)
	filters, _ := m.GetAllIPFilters()
	assert.Len(t, filters, 1)
}

func TestManager_Persistence(t *testing.T) {
	eng, err := badger.New(engine.DefaultConfig(filepath.Join(t.TempDir(), "access.db")))
	require.NoError(t, err)
	defer eng.Close()
	store := kv.New(eng, []byte("a/"))

	clk := newMockClock()
	m1, err := NewManager(DefaultConfig(), WithClock(clk), WithStore(store))
	require.NoError(t, err)
	require.NoError(t, m1.Start(context.Background()))

	addr := netip.MustParseAddr("192.0.2.44")
	require.NoError(t, m1.SetIPReputation(types.IPReputation{Address: addr, Score: -700}))
	require.NoError(t, m1.AddIPSubnetLimit("IPv4", "/16", 8))
	id, err := m1.AddIPFilter("2001:db8::/32", types.IPFilterAllowed)
	require.NoError(t, err)
	gone, err := m1.AddIPFilter("198.51.100.0/24", types.IPFilterBlocked)
	require.NoError(t, err)
	require.NoError(t, m1.RemoveIPFilter(gone))

	// 只被观察到的地址不写入存储
	m1.AdmitConnection(netip.MustParseAddr("192.0.2.45"), types.DirOutbound)
	require.NoError(t, m1.Close())

	m2, err := NewManager(DefaultConfig(), WithClock(clk), WithStore(store))
	require.NoError(t, err)
	require.NoError(t, m2.Start(context.Background()))
	defer m2.Close()

	rep, ok := m2.GetIPReputation(addr)
	require.True(t, ok)
	assert.Equal(t, int16(-700), rep.Score)
	assert.Equal(t, clk.Now().UTC(), rep.LastUpdateTime.UTC())

	all, _ := m2.GetAllIPReputations()
	assert.Len(t, all, 1)

	limits, _ := m2.GetAllIPSubnetLimits()
	require.Len(t, limits, 1)
	assert.Equal(t, 8, limits[0].MaximumConnections)

	filters, _ := m2.GetAllIPFilters()
	require.Len(t, filters, 1)
	assert.Equal(t, id, filters[0].ID)

	next, err := m2.AddIPFilter("203.0.113.0/24", types.IPFilterBlocked)
	require.NoError(t, err)
	assert.Greater(t, next, id)
}

func TestNewManager_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reputation.RejectThreshold = cfg.Reputation.DefaultScore

	_, err := NewManager(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
