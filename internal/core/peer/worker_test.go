package peer

import (
	"context"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doytsujin/QuantumGate/pkg/types"
)

func testPeer(luid types.PeerLUID) *Peer {
	d := NewData(luid, types.DirOutbound, netip.AddrPort{}, netip.MustParseAddrPort("10.0.0.9:1"))
	return newPeer(d, time.Now, nil)
}

func TestPool_DispatchesReadyPeers(t *testing.T) {
	var mu sync.Mutex
	handled := make(map[types.PeerLUID]int)
	done := make(chan struct{}, 8)

	pool, err := NewPool(2, 50*time.Millisecond, func(_ context.Context, p *Peer) {
		mu.Lock()
		handled[p.LUID()]++
		mu.Unlock()
		done <- struct{}{}
	})
	require.NoError(t, err)
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop()

	p1, p2 := testPeer(1), testPeer(2)
	require.NoError(t, pool.Add(p1))
	require.NoError(t, pool.Add(p2))
	assert.Equal(t, 2, pool.Len())

	p2.SignalDataReady()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}

	mu.Lock()
	assert.Equal(t, 1, handled[2])
	assert.Equal(t, 0, handled[1])
	mu.Unlock()

	// 处理前事件已被复位
	assert.False(t, p2.DataReady().IsSet())
}

func TestPool_GrowsWhenFull(t *testing.T) {
	pool, err := NewPool(1, time.Second, func(context.Context, *Peer) {})
	require.NoError(t, err)

	for i := 1; i <= peersPerWorker; i++ {
		require.NoError(t, pool.Add(testPeer(types.PeerLUID(i))))
	}
	assert.Equal(t, 1, pool.Workers())

	extra := testPeer(1000)
	require.NoError(t, pool.Add(extra))
	assert.Equal(t, 2, pool.Workers())

	pool.Remove(extra)
	assert.Equal(t, peersPerWorker, pool.Len())

	// 移出后重新加入不需要再扩容
	require.NoError(t, pool.Add(extra))
	assert.Equal(t, 2, pool.Workers())
}

func TestPool_StartStop(t *testing.T) {
	pool, err := NewPool(3, time.Hour, func(context.Context, *Peer) {})
	require.NoError(t, err)

	require.NoError(t, pool.Start(context.Background()))
	assert.ErrorIs(t, pool.Start(context.Background()), ErrAlreadyStarted)

	stopped := make(chan error, 1)
	go func() { stopped <- pool.Stop() }()

	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop")
	}

	assert.ErrorIs(t, pool.Add(testPeer(1)), ErrClosed)
	assert.NoError(t, pool.Stop())
}
