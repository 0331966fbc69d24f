package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
//                              状态顺序测试
// ============================================================================

// TestPeerStatus_Order 测试状态的时间顺序
func TestPeerStatus_Order(t *testing.T) {
	want := []PeerStatus{
		StatusUnknown, StatusInitialized, StatusConnecting, StatusAccepted,
		StatusConnected, StatusMetaExchange, StatusPrimaryKeyExchange,
		StatusSecondaryKeyExchange, StatusAuthentication, StatusSessionInit,
		StatusReady, StatusDisconnected,
	}

	all := AllPeerStatuses()
	require.Equal(t, want, all)

	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].Before(all[i]), "%s should be before %s", all[i-1], all[i])
		assert.True(t, all[i].After(all[i-1]))
	}

	// Disconnected 必须排在最后
	assert.Equal(t, StatusDisconnected, all[len(all)-1])
}

// TestPeerStatus_String 测试字符串表示
func TestPeerStatus_String(t *testing.T) {
	assert.Equal(t, "ready", StatusReady.String())
	assert.Equal(t, "meta_exchange", StatusMetaExchange.String())
	assert.Equal(t, "status(99)", PeerStatus(99).String())
	assert.False(t, PeerStatus(99).IsValid())
	assert.Equal(t, -1, PeerStatus(99).Rank())
}

// ============================================================================
//                              状态迁移测试
// ============================================================================

// TestPeerStatus_CanTransitionTo 测试状态迁移规则
func TestPeerStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from PeerStatus
		to   PeerStatus
		want bool
	}{
		{"forward one step", StatusInitialized, StatusConnecting, true},
		{"forward skip", StatusAccepted, StatusMetaExchange, true},
		{"forward to ready", StatusSessionInit, StatusReady, true},
		{"same state", StatusConnected, StatusConnected, false},
		{"backward", StatusReady, StatusAuthentication, false},
		{"backward to unknown", StatusInitialized, StatusUnknown, false},
		{"any to disconnected", StatusMetaExchange, StatusDisconnected, true},
		{"unknown to disconnected", StatusUnknown, StatusDisconnected, true},
		{"disconnected is terminal", StatusDisconnected, StatusReady, false},
		{"disconnected to disconnected", StatusDisconnected, StatusDisconnected, false},
		{"invalid target", StatusInitialized, PeerStatus(42), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))

			err := tt.from.ValidateTransition(tt.to)
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidStatusTransition)
				assert.True(t, IsProgrammingError(err))
			}
		})
	}
}

// TestPeerStatus_AllToDisconnected 测试任意非终态都能断开
func TestPeerStatus_AllToDisconnected(t *testing.T) {
	for _, s := range AllPeerStatuses() {
		if s.IsTerminal() {
			continue
		}
		assert.True(t, s.CanTransitionTo(StatusDisconnected), "%s -> disconnected", s)
	}
}
